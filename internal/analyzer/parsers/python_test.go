package parsers

import (
	"context"
	"os"
	"testing"

	"github.com/lithammer/dedent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/project-census/internal/analyzer/extraction"
)

// Test Plan for PythonParser:
// - Every non-async function definition in the tree becomes a FunctionRecord,
//   nested ones included, in breadth-first statement order
// - Line numbers point at the def keyword (decorators excluded)
// - Positional parameters stop at *, *args and **kwargs; names before / are dropped
// - Classes list only their direct body methods (decorated ones unwrapped)
// - Nested classes get their own ClassRecord and do not leak methods upward
// - Docstrings are cleaned; missing docstrings are absent, not empty
// - else/finally bodies sit at the depth of their statement and each elif
//   nests one level below the previous clause
// - Syntax errors and invalid UTF-8 fail with ErrParseFailed / ErrInvalidUTF8
// - Python 2 statements, tuple parameters and a required parameter after a
//   defaulted one fail with ErrParseFailed
// - Empty files yield empty, non-nil record lists

func readFixture(t *testing.T, path string) []byte {
	t.Helper()
	source, err := os.ReadFile(path)
	require.NoError(t, err)
	return source
}

func functionNames(functions []extraction.FunctionRecord) []string {
	names := make([]string, 0, len(functions))
	for _, fn := range functions {
		names = append(names, fn.Name)
	}
	return names
}

func TestPythonParser_Functions(t *testing.T) {
	t.Parallel()

	parser := NewPythonParser()
	source := readFixture(t, "../../../testdata/code/python/simple.py")

	result, err := parser.Extract(context.Background(), "simple.py", source)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "simple.py", result.FilePath)
	assert.Equal(t,
		[]string{"load_users", "save_users", "__init__", "display_name", "parse_line", "ordering"},
		functionNames(result.Functions))

	byName := make(map[string]extraction.FunctionRecord)
	for _, fn := range result.Functions {
		byName[fn.Name] = fn
		assert.Equal(t, extraction.KindFunction, fn.Kind)
		assert.Equal(t, extraction.OriginGrammar, fn.Origin)
	}

	loadUsers := byName["load_users"]
	assert.Equal(t, 33, loadUsers.Line)
	assert.Equal(t, []string{"strict"}, loadUsers.Params)
	assert.Equal(t, extraction.Doc("Load users from a file."), loadUsers.Doc)

	saveUsers := byName["save_users"]
	assert.Equal(t, 43, saveUsers.Line)
	assert.Equal(t, []string{"users", "path"}, saveUsers.Params)
	assert.False(t, saveUsers.Doc.Present)
	assert.Equal(t, extraction.NoDocumentation, saveUsers.Doc.OrMarker())

	assert.Equal(t, 21, byName["display_name"].Line, "line of def, not of the decorator")
	assert.Equal(t, []string{"self", "name", "email"}, byName["__init__"].Params)
	assert.Equal(t, []string{"line"}, byName["parse_line"].Params)
}

func TestPythonParser_Classes(t *testing.T) {
	t.Parallel()

	parser := NewPythonParser()
	source := readFixture(t, "../../../testdata/code/python/simple.py")

	result, err := parser.Extract(context.Background(), "simple.py", source)
	require.NoError(t, err)
	require.Len(t, result.Classes, 2)

	user := result.Classes[0]
	assert.Equal(t, "User", user.Name)
	assert.Equal(t, 10, user.Line)
	assert.Equal(t, "A registered user.\n\nHolds identity fields only.", user.Doc.Text)

	// async refresh and the nested Meta.ordering are not direct methods
	require.Len(t, user.Methods, 2)
	assert.Equal(t, "__init__", user.Methods[0].Name)
	assert.Equal(t, []string{"self", "name", "email"}, user.Methods[0].Params)
	assert.False(t, user.Methods[0].Doc.Present)
	assert.Equal(t, "display_name", user.Methods[1].Name)
	assert.Equal(t, "Name shown in the UI.", user.Methods[1].Doc.Text)

	meta := result.Classes[1]
	assert.Equal(t, "Meta", meta.Name)
	assert.Equal(t, 28, meta.Line)
	require.Len(t, meta.Methods, 1)
	assert.Equal(t, "ordering", meta.Methods[0].Name)
}

func TestPythonParser_ParameterKinds(t *testing.T) {
	t.Parallel()

	source := dedent.Dedent(`
		def plain(a, b, c):
		    pass

		def typed(a: int, b: "str" = "x", c=None):
		    pass

		def posonly(a, b, /, c, d):
		    pass

		def kwonly(a, *, b, c):
		    pass

		def variadic(a, *rest, b, **opts):
		    pass

		def nothing():
		    pass
	`)

	result, err := NewPythonParser().Extract(context.Background(), "params.py", []byte(source))
	require.NoError(t, err)
	require.Len(t, result.Functions, 6)

	tests := []struct {
		name   string
		params []string
	}{
		{"plain", []string{"a", "b", "c"}},
		{"typed", []string{"a", "b", "c"}},
		{"posonly", []string{"c", "d"}},
		{"kwonly", []string{"a"}},
		{"variadic", []string{"a"}},
		{"nothing", []string{}},
	}

	for i, tt := range tests {
		assert.Equal(t, tt.name, result.Functions[i].Name)
		assert.Equal(t, tt.params, result.Functions[i].Params, tt.name)
	}
}

func TestPythonParser_Docstrings(t *testing.T) {
	t.Parallel()

	source := dedent.Dedent(`
		def single():
		    'single quoted'

		def raw():
		    r"""C:\path\n"""

		def escaped():
		    "tab\there"

		def fstring():
		    f"not {a} docstring"

		def after_statement():
		    x = 1
		    "too late"

		def commented():
		    # leading comment
		    """Still the first statement."""

		def blank():
		    """   """

		def concatenated():
		    "first " "second"
	`)

	result, err := NewPythonParser().Extract(context.Background(), "docs.py", []byte(source))
	require.NoError(t, err)

	docs := make(map[string]extraction.Documentation)
	for _, fn := range result.Functions {
		docs[fn.Name] = fn.Doc
	}

	assert.Equal(t, extraction.Doc("single quoted"), docs["single"])
	assert.Equal(t, extraction.Doc(`C:\path\n`), docs["raw"])
	assert.Equal(t, extraction.Doc("tab     here"), docs["escaped"], "tabs are expanded to 8 columns")
	assert.False(t, docs["fstring"].Present)
	assert.False(t, docs["after_statement"].Present)
	assert.Equal(t, extraction.Doc("Still the first statement."), docs["commented"])
	assert.False(t, docs["blank"].Present)
	assert.Equal(t, extraction.Doc("first second"), docs["concatenated"])
}

func TestPythonParser_AsyncExcluded(t *testing.T) {
	t.Parallel()

	source := dedent.Dedent(`
		async def fetch():
		    pass

		class Client:
		    async def get(self):
		        pass

		    def close(self):
		        pass
	`)

	result, err := NewPythonParser().Extract(context.Background(), "client.py", []byte(source))
	require.NoError(t, err)

	assert.Equal(t, []string{"close"}, functionNames(result.Functions))
	require.Len(t, result.Classes, 1)
	require.Len(t, result.Classes[0].Methods, 1)
	assert.Equal(t, "close", result.Classes[0].Methods[0].Name)
}

func TestPythonParser_ParseFailure(t *testing.T) {
	t.Parallel()

	parser := NewPythonParser()

	t.Run("syntax error", func(t *testing.T) {
		t.Parallel()
		source := readFixture(t, "../../../testdata/code/python/broken.py")

		result, err := parser.Extract(context.Background(), "broken.py", source)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrParseFailed)
		assert.Contains(t, err.Error(), "broken.py")
		assert.Nil(t, result)
	})

	t.Run("invalid utf-8", func(t *testing.T) {
		t.Parallel()

		result, err := parser.Extract(context.Background(), "latin1.py", []byte("def f():\n    '\xe9'\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidUTF8)
		assert.Nil(t, result)
	})
}

func TestPythonParser_StatementNesting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{
			name: "if else",
			source: `
				if x:
				    pass
				else:
				    def b():
				        pass
				class K:
				    def m(self):
				        pass
			`,
			want: []string{"b", "m"},
		},
		{
			name: "elif chain",
			source: `
				if a:
				    def f1():
				        def inner():
				            def deepest():
				                pass
				elif b:
				    def f2():
				        pass
				elif c:
				    def f3():
				        pass
				else:
				    def f4():
				        pass
			`,
			want: []string{"f1", "inner", "f2", "deepest", "f3", "f4"},
		},
		{
			name: "try else finally",
			source: `
				try:
				    def t():
				        pass
				except ValueError:
				    def h():
				        pass
				else:
				    def e():
				        pass
				finally:
				    def f():
				        pass
				class K:
				    def m(self):
				        pass
			`,
			want: []string{"t", "e", "f", "m", "h"},
		},
		{
			name: "loop else",
			source: `
				for i in items:
				    def a():
				        pass
				else:
				    def b():
				        pass
				while running:
				    pass
				else:
				    def c():
				        pass
				class K:
				    def m(self):
				        pass
			`,
			want: []string{"a", "b", "c", "m"},
		},
	}

	parser := NewPythonParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := parser.Extract(context.Background(), "order.py", []byte(dedent.Dedent(tt.source)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, functionNames(result.Functions))
		})
	}
}

func TestPythonParser_Python2Constructs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		source  string
		wantErr bool
	}{
		{"print statement", "print 'hello'\n", true},
		{"exec statement", "exec 'x = 1'\n", true},
		{"default before plain", "def f(a=1, b):\n    pass\n", true},
		{"default before typed", "def f(a: int = 1, b: int):\n    pass\n", true},
		{"default before positional separator", "def f(a=1, /, b):\n    pass\n", true},
		{"lambda default before plain", "g = lambda a=1, b: a\n", true},
		{"tuple parameter", "def f(a, (b, c)):\n    pass\n", true},
		{"print call", "print('hello')\n", false},
		{"print chevron expression", "print >>f, 'x'\n", false},
		{"exec call", "exec('x = 1')\n", false},
		{"keyword-only after default", "def f(a=1, *, b):\n    pass\n", false},
		{"keyword after varargs", "def f(a=1, *args, b, **kw):\n    pass\n", false},
	}

	parser := NewPythonParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := parser.Extract(context.Background(), "legacy.py", []byte(tt.source))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrParseFailed)
				assert.Contains(t, err.Error(), "legacy.py")
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, result)
		})
	}
}

func TestPythonParser_EmptyFile(t *testing.T) {
	t.Parallel()

	result, err := NewPythonParser().Extract(context.Background(), "empty.py", []byte(""))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotNil(t, result.Functions)
	assert.NotNil(t, result.Classes)
	assert.Empty(t, result.Functions)
	assert.Empty(t, result.Classes)
}

func TestPythonParser_Exact(t *testing.T) {
	t.Parallel()
	assert.True(t, NewPythonParser().Exact())
}
