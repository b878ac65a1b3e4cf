package config

// DefaultWorkspaceRoot is the remote base path deployments live under when no
// settings file overrides it.
const DefaultWorkspaceRoot = "/Workspace/Deployments"

// GetDefaultSettings returns the built-in settings that user and project
// configuration files are layered on top of.
func GetDefaultSettings() Settings {
	return Settings{
		WorkspaceRoot: DefaultWorkspaceRoot,
		SourceDir:     "src",
		HistoryPath:   "", // resolved to the user config dir by the history store
	}
}
