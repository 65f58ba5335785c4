package core

type AppConfig interface {
	GetRuntimePath() string
	GetDatabasePath() string
	GetMCPConfigPath() string
	GetPersonaPath() string
	GetDocumentsPath() string
	GetWorkspacePath() string
}

type ProviderConfig interface {
	GetProvider() string
	GetModel() string
	SetModel(model string) error
	GetBaseURL() string
	GetAPIKey() string
	GetNumCtx() int
}

type EmbeddingConfig interface {
	GetEmbeddingModel() string
	GetEmbeddingDim() int
}
