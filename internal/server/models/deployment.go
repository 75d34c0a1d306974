package models

// DeploymentSource identifies what caused a deployment trigger.
type DeploymentSource string

const (
	DeploymentSourceWebhook DeploymentSource = "webhook"
	DeploymentSourceManual  DeploymentSource = "manual"
)
