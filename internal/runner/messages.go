package runner

// Console messages
const (
	msgBuildFailed        = "Build falhou!"
	msgBuildSucceeded     = "Build OK!"
	msgElapsed            = "Tempo de execução: %ss"
	msgCompiling          = "Compilando %s..."
	msgDescriptorNotFound = "Arquivo %s não encontrado."
	msgInvalidDirectory   = "Diretório inválido."
	msgInvalidArgument    = "Argumento inválido."
	msgToolNotFound       = "MSbuild.exe não foi encontrado."
	msgSystemRootNotFound = "Variável %SystemRoot% não encontrada."
	msgLaunchFailed       = "Não foi possível iniciar o MSbuild."
)
