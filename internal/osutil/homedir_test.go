package osutil

import (
	"runtime"
	"testing"
)

func TestUserHomeDirPrefersHome(t *testing.T) {
	t.Setenv("HOME", "/home/toolsmith")
	t.Setenv("USERPROFILE", `C:\Users\toolsmith`)

	got, err := UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir() error = %v", err)
	}
	if want := "/home/toolsmith"; got != want {
		t.Errorf("UserHomeDir() = %q, want %q", got, want)
	}
}

func TestUserHomeDirFallsBack(t *testing.T) {
	if runtime.GOOS != "windows" {
		t.Skip("the fallback beyond $HOME only applies on windows")
	}

	t.Setenv("HOME", "")
	t.Setenv("USERPROFILE", `C:\Users\toolsmith`)

	got, err := UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir() error = %v", err)
	}
	if want := `C:\Users\toolsmith`; got != want {
		t.Errorf("UserHomeDir() = %q, want %q", got, want)
	}
}
