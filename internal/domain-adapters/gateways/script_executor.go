package gateways

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ochairo/cauldron/internal/domain/entities"
	"github.com/ochairo/cauldron/internal/domain/interfaces"
)

// ScriptExecutor runs recipe configure and build scripts
type ScriptExecutor struct {
	defaultTimeout time.Duration
	logger         interfaces.Logger
}

// NewScriptExecutor creates a new script executor
func NewScriptExecutor(logger interfaces.Logger) *ScriptExecutor {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &ScriptExecutor{
		defaultTimeout: 60 * time.Minute,
		logger:         logger,
	}
}

// ExecuteScriptConfig contains configuration for executing a shell script.
type ExecuteScriptConfig struct {
	Script      string
	WorkingDir  string
	Env         map[string]string
	Timeout     time.Duration
	Description string
}

// ExecuteResult contains the result of script execution
type ExecuteResult struct {
	Success  bool
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	Error    error
}

// ExecuteScript runs a shell script with the given configuration
func (se *ScriptExecutor) ExecuteScript(ctx context.Context, config ExecuteScriptConfig) *ExecuteResult {
	startTime := time.Now()
	result := &ExecuteResult{}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = se.defaultTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // G204: Script execution is intentional and controlled by recipe configuration
	cmd := exec.CommandContext(execCtx, "/bin/sh", "-c", config.Script)
	// Children of the shell may keep the output pipes open after it is killed
	cmd.WaitDelay = 5 * time.Second
	if config.WorkingDir != "" {
		cmd.Dir = config.WorkingDir
	}

	env := os.Environ()
	for key, value := range config.Env {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if config.Description != "" {
		se.logger.Info("executing", interfaces.F("step", config.Description))
	}

	err := cmd.Run()
	result.Duration = time.Since(startTime)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		result.Error = err
		var exitErr *exec.ExitError
		//nolint:gocritic // ifElseChain: checking different error types, not suitable for switch
		if execCtx.Err() == context.DeadlineExceeded {
			result.Error = fmt.Errorf("script execution timeout after %v", timeout)
			result.ExitCode = -1
		} else if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
		return result
	}

	result.Success = true
	result.ExitCode = 0
	return result
}

// Compile runs the recipe's configure and build scripts in BuildDir with the
// instrumentation environment of the requested profile. Empty scripts are skipped.
func (se *ScriptExecutor) Compile(ctx context.Context, req entities.CompileRequest) error {
	def := req.Recipe
	if err := os.MkdirAll(req.BuildDir, 0750); err != nil {
		return fmt.Errorf("failed to create build directory: %w", err)
	}

	env := CompileEnv(req)
	timeout := def.Build.Timeout()

	steps := []struct {
		name   string
		script string
	}{
		{name: "configure", script: def.Build.Configure},
		{name: "build", script: def.Build.Build},
	}

	ran := false
	for _, step := range steps {
		if strings.TrimSpace(step.script) == "" {
			continue
		}
		if err := se.ValidateScript(step.script); err != nil {
			return fmt.Errorf("%s script rejected: %w", step.name, err)
		}

		result := se.ExecuteScript(ctx, ExecuteScriptConfig{
			Script:      step.script,
			WorkingDir:  req.BuildDir,
			Env:         env,
			Timeout:     timeout,
			Description: fmt.Sprintf("%s %s (%s)", step.name, def.Name, req.Profile.Variant()),
		})
		if !result.Success {
			return fmt.Errorf("%s script failed (exit %d): %w\nStderr: %s",
				step.name, result.ExitCode, result.Error, result.Stderr)
		}
		if result.Stdout != "" {
			se.logger.Debug(step.name+" output", interfaces.F("stdout", result.Stdout))
		}
		se.logger.Info(step.name+" completed", interfaces.F("duration", result.Duration))
		ran = true
	}

	if !ran {
		se.logger.Warn("recipe has no build scripts, expecting a prebuilt build directory",
			interfaces.F("recipe", def.Name),
			interfaces.F("build_dir", req.BuildDir))
	}
	return nil
}

// instrumentationFlags maps each tag to the compiler and linker flags enabling it.
// The claimer is a source-level hook and only gets its CAULDRON_CLAIMER switch.
var instrumentationFlags = map[entities.Instrumentation]struct {
	cflags  []string
	ldflags []string
}{
	entities.InstrumentationSancov: {
		cflags: []string{"-fsanitize-coverage=trace-pc-guard"},
	},
	entities.InstrumentationASan: {
		cflags:  []string{"-fsanitize=address", "-fno-omit-frame-pointer"},
		ldflags: []string{"-fsanitize=address"},
	},
	entities.InstrumentationGcov: {
		cflags:  []string{"--coverage"},
		ldflags: []string{"--coverage"},
	},
	entities.InstrumentationLLVMCov: {
		cflags:  []string{"-fprofile-instr-generate", "-fcoverage-mapping"},
		ldflags: []string{"-fprofile-instr-generate"},
	},
}

// CompileEnv returns the environment passed to recipe scripts
func CompileEnv(req entities.CompileRequest) map[string]string {
	env := map[string]string{
		"PACKAGE":    req.Recipe.Name,
		"VERSION":    req.Recipe.Version,
		"VARIANT":    req.Profile.Variant(),
		"SOURCE_DIR": req.SourceDir,
		"BUILD_DIR":  req.BuildDir,
		"PREFIX":     req.Prefix,
	}
	if req.Recipe.Build.CC != "" {
		env["CC"] = req.Recipe.Build.CC
	}

	cflags := strings.Fields(os.Getenv("CFLAGS"))
	ldflags := strings.Fields(os.Getenv("LDFLAGS"))
	for _, tag := range req.Profile.Set().Tags() {
		env["CAULDRON_"+strings.ToUpper(string(tag))] = "1"
		flags := instrumentationFlags[tag]
		cflags = append(cflags, flags.cflags...)
		ldflags = append(ldflags, flags.ldflags...)
	}
	if len(cflags) > 0 {
		env["CFLAGS"] = strings.Join(cflags, " ")
	}
	if len(ldflags) > 0 {
		env["LDFLAGS"] = strings.Join(ldflags, " ")
	}
	return env
}

// ValidateScript performs basic validation on a shell script
func (se *ScriptExecutor) ValidateScript(script string) error {
	if strings.TrimSpace(script) == "" {
		return fmt.Errorf("script is empty")
	}

	dangerous := []string{
		"rm -rf /",
		"mkfs",
		"dd if=/dev/zero",
		":(){:|:&};:", // fork bomb
	}

	for _, pattern := range dangerous {
		if strings.Contains(script, pattern) {
			return fmt.Errorf("script contains potentially dangerous pattern: %s", pattern)
		}
	}

	return nil
}
