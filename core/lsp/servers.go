package lsp

// ServerID uniquely identifies a language server.
type ServerID string

// Common server IDs for well-known language servers.
const (
	ServerGopls      ServerID = "gopls"
	ServerTypeScript ServerID = "typescript-language-server"
	ServerPyright    ServerID = "pyright"
	ServerRustAna    ServerID = "rust-analyzer"
	ServerClangd     ServerID = "clangd"
	ServerJdtls      ServerID = "jdtls"
)

// ServerDefinition describes a known language server and the files it serves.
// The definition is advisory: scout does not spawn servers itself, but the
// selector uses definitions to report which server would cover a file.
type ServerDefinition struct {
	// ID is the unique identifier for this server.
	ID ServerID

	// Name is the human-readable name of the language server.
	Name string

	// Command is the executable name used to run the server.
	Command string

	// Extensions lists file extensions this server handles.
	Extensions []string

	// LanguageIDs lists LSP language identifiers this server handles.
	LanguageIDs []string

	// RootMarkers are files that indicate a project root for this server.
	RootMarkers []string
}

// BuiltinServers is the default set of server definitions.
var BuiltinServers = []*ServerDefinition{
	{
		ID:          ServerGopls,
		Name:        "gopls",
		Command:     "gopls",
		Extensions:  []string{".go"},
		LanguageIDs: []string{"go"},
		RootMarkers: []string{"go.mod", "go.sum"},
	},
	{
		ID:          ServerTypeScript,
		Name:        "TypeScript Language Server",
		Command:     "typescript-language-server",
		Extensions:  []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"},
		LanguageIDs: []string{"typescript", "typescriptreact", "javascript", "javascriptreact"},
		RootMarkers: []string{"tsconfig.json", "jsconfig.json", "package.json"},
	},
	{
		ID:          ServerPyright,
		Name:        "Pyright",
		Command:     "pyright-langserver",
		Extensions:  []string{".py", ".pyi"},
		LanguageIDs: []string{"python"},
		RootMarkers: []string{"pyproject.toml", "pyrightconfig.json", "setup.py", "requirements.txt"},
	},
	{
		ID:          ServerRustAna,
		Name:        "rust-analyzer",
		Command:     "rust-analyzer",
		Extensions:  []string{".rs"},
		LanguageIDs: []string{"rust"},
		RootMarkers: []string{"Cargo.toml", "Cargo.lock"},
	},
	{
		ID:          ServerClangd,
		Name:        "clangd",
		Command:     "clangd",
		Extensions:  []string{".c", ".h", ".cpp", ".hpp", ".cc", ".cxx"},
		LanguageIDs: []string{"c", "cpp"},
		RootMarkers: []string{"compile_commands.json", "CMakeLists.txt", "Makefile"},
	},
	{
		ID:          ServerJdtls,
		Name:        "Eclipse JDT Language Server",
		Command:     "jdtls",
		Extensions:  []string{".java"},
		LanguageIDs: []string{"java"},
		RootMarkers: []string{"pom.xml", "build.gradle", "build.gradle.kts"},
	},
}
