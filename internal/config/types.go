package config

// Environment identifies one of the fixed Databricks deployment targets.
// Each environment has its own workspace host and access token.
type Environment string

const (
	EnvDev  Environment = "dev"
	EnvTest Environment = "test"
	EnvProd Environment = "prod"
)

// Environments lists all valid environments in their canonical order.
var Environments = []Environment{EnvDev, EnvTest, EnvProd}

// String makes Environment satisfy the fmt.Stringer interface.
func (e Environment) String() string {
	return string(e)
}

// UseCase identifies a named, independently selectable notebook directory.
// UseCaseAll is a meta-selector that expands to every concrete use case.
type UseCase string

const (
	UseCase1   UseCase = "usecase-1"
	UseCase2   UseCase = "usecase-2"
	UseCaseAll UseCase = "all"
)

// UseCases lists the concrete use cases in their fixed deployment order.
// UseCaseAll is deliberately not part of this list.
var UseCases = []UseCase{UseCase1, UseCase2}

// String makes UseCase satisfy the fmt.Stringer interface.
func (u UseCase) String() string {
	return string(u)
}

// Expand resolves the selector to the list of concrete use cases to deploy.
// For UseCaseAll this is every use case in fixed order; otherwise it is the
// single selected use case.
func (u UseCase) Expand() []UseCase {
	if u == UseCaseAll {
		expanded := make([]UseCase, len(UseCases))
		copy(expanded, UseCases)
		return expanded
	}
	return []UseCase{u}
}

// SharedSetName is the artifact set deployed unconditionally to every target
// regardless of use-case selection.
const SharedSetName = "shared"

// Target holds the resolved deployment target: the environment plus the
// workspace endpoint and credential it maps to. It is constructed once at
// process start and passed by value into the orchestrator, so no component
// reads credentials from the process environment on its own.
type Target struct {
	Environment Environment
	Host        string
	Token       string
}

// Settings is the optional on-disk configuration for dbxdeploy.
type Settings struct {
	// WorkspaceRoot is the remote base path deployments live under.
	// Artifact sets land at {WorkspaceRoot}/{environment}/{set}.
	WorkspaceRoot string `yaml:"workspaceRoot,omitempty"`

	// SourceDir is the local directory containing the shared/ and use-case
	// notebook folders.
	SourceDir string `yaml:"sourceDir,omitempty"`

	// HistoryPath is the SQLite database file deployment runs are recorded in.
	HistoryPath string `yaml:"historyPath,omitempty"`

	GitHub GitHubSettings `yaml:"github,omitempty"`
}

// GitHubSettings configures the provision command.
type GitHubSettings struct {
	// Repo is the owner/name of the repository whose environments are
	// provisioned. Empty means the gh CLI resolves it from the working tree.
	Repo string `yaml:"repo,omitempty"`

	// ProdReviewer is the GitHub handle required to approve prod deployments.
	ProdReviewer string `yaml:"prodReviewer,omitempty"`
}
