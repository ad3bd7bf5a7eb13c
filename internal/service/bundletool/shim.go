package bundletool

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// writeShim generates a small executable bridging the cached archive to
// the Java runtime, so callers can exec the tool like a native binary.
func writeShim(dir, javaPath string) error {
	var (
		path    = filepath.Join(dir, shimFilename())
		content string
	)

	if isWindows() {
		content = fmt.Sprintf("@echo off\r\n\"%s\" -jar \"%%~dp0%s\" %%*\r\n", javaPath, jarFilename)
	} else {
		content = fmt.Sprintf("#!/bin/sh\nexec \"%s\" -jar \"%s\" \"$@\"\n",
			javaPath, filepath.Join(dir, jarFilename))
	}

	if err := os.WriteFile(path, []byte(content), DefaultFileMode); err != nil {
		return fmt.Errorf("write tool shim: %w", err)
	}

	return nil
}

// shimFilename returns the platform-specific name of the generated shim.
func shimFilename() string {
	if isWindows() {
		return ToolName + ".cmd"
	}

	return ToolName
}

func isWindows() bool {
	return strings.Contains(strings.ToLower(runtime.GOOS), "windows")
}
