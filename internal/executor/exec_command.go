package executor

import "os/exec"

// Injection point for unit tests
var execCommand = exec.CommandContext
