package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ngrpv/untar/internal/tartest"
	"github.com/ngrpv/untar/pkg/archive"
	"github.com/ngrpv/untar/pkg/config"
	"github.com/ngrpv/untar/pkg/crypto"
)

// resetFlags clears the package level flag values so runs do not leak
// into each other.
func resetFlags() {
	cfgFile = ""
	envFile = ""

	listNames = false
	showInfo = false
	extractAll = false

	outputDir = ""
	includes = []string{}
	excludes = []string{}
	noProgress = false

	provider = ""
	region = ""
	endpoint = ""
	accessKey = ""
	secretKey = ""

	decrypt = false
	password = ""
	keyFile = ""
	verifyMAC = false
}

// executeCommand runs the root command and returns its output.
func executeCommand(args ...string) (string, error) {
	resetFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()

	return buf.String(), err
}

// emptyConfigFile keeps tests away from any real config in $HOME.
func emptyConfigFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatalf("failed to create empty config: %v", err)
	}
	return path
}

// writeTestArchive builds a small archive on disk.
func writeTestArchive(t *testing.T) string {
	t.Helper()

	data := tartest.Archive([]tartest.Entry{
		{Name: "docs/", Mode: 0755, Typeflag: '5'},
		{Name: "docs/readme.txt", Mode: 0644, Data: []byte("hello docs")},
		{Name: "notes.txt", Mode: 0644, Data: []byte("note")},
	}, 2)

	path := filepath.Join(t.TempDir(), "test.tar")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write test archive: %v", err)
	}
	return path
}

// TestRootCommandFlags tests that all flags are registered
func TestRootCommandFlags(t *testing.T) {
	flags := []string{
		"list",
		"info",
		"extract",
		"output",
		"include",
		"exclude",
		"no-progress",
		"provider",
		"region",
		"endpoint",
		"access-key",
		"secret-key",
		"decrypt",
		"password",
		"key-file",
		"verify",
	}

	for _, flag := range flags {
		if rootCmd.Flags().Lookup(flag) == nil {
			t.Errorf("root command should have --%s flag", flag)
		}
	}

	for _, flag := range []string{"config", "env-file"} {
		if rootCmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("root command should have persistent --%s flag", flag)
		}
	}
}

// TestActionRequired tests that a bare invocation is rejected
func TestActionRequired(t *testing.T) {
	_, err := executeCommand("archive.tar")
	if err == nil {
		t.Fatal("expected an error without an action flag")
	}
	if err.Error() != "action must be specified" {
		t.Errorf("error = %q, want %q", err.Error(), "action must be specified")
	}
}

// TestListNames tests --list output
func TestListNames(t *testing.T) {
	tarPath := writeTestArchive(t)

	output, err := executeCommand("-c", emptyConfigFile(t), "-l", tarPath)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	want := "docs/\ndocs/readme.txt\nnotes.txt\n"
	if output != want {
		t.Errorf("list output = %q, want %q", output, want)
	}
}

// TestListFilters tests --include and --exclude on the listing
func TestListFilters(t *testing.T) {
	tarPath := writeTestArchive(t)
	cfgPath := emptyConfigFile(t)

	output, err := executeCommand("-c", cfgPath, "-l", "--include", "*.txt", tarPath)
	if err != nil {
		t.Fatalf("list with include failed: %v", err)
	}
	if want := "docs/readme.txt\nnotes.txt\n"; output != want {
		t.Errorf("include output = %q, want %q", output, want)
	}

	output, err = executeCommand("-c", cfgPath, "-l", "--exclude", "docs*", tarPath)
	if err != nil {
		t.Fatalf("list with exclude failed: %v", err)
	}
	if want := "notes.txt\n"; output != want {
		t.Errorf("exclude output = %q, want %q", output, want)
	}
}

// TestInfoWinsOverList tests that --info suppresses the bare listing
func TestInfoWinsOverList(t *testing.T) {
	tarPath := writeTestArchive(t)

	output, err := executeCommand("-c", emptyConfigFile(t), "-l", "-i", tarPath)
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}

	if !strings.Contains(output, "Filename : docs/readme.txt") {
		t.Errorf("info output should contain the filename field, got:\n%s", output)
	}
	if !strings.Contains(output, "Type : Regular file") {
		t.Errorf("info output should contain the type field, got:\n%s", output)
	}
	if !strings.Contains(output, "Type : Directory") {
		t.Errorf("info output should contain the directory entry, got:\n%s", output)
	}
	if !strings.Contains(output, "Modification time : ") {
		t.Errorf("info output should contain the mtime field, got:\n%s", output)
	}

	// No bare name lines from the listing.
	for _, line := range strings.Split(output, "\n") {
		if line == "notes.txt" {
			t.Error("info output should not contain bare listing lines")
		}
	}
}

// TestExtract tests --extract end to end
func TestExtract(t *testing.T) {
	tarPath := writeTestArchive(t)
	destDir := t.TempDir()

	_, err := executeCommand("-c", emptyConfigFile(t), "-x", "--no-progress", "-C", destDir, tarPath)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(destDir, "docs", "readme.txt"))
	if err != nil {
		t.Fatalf("failed to read extracted file: %v", err)
	}
	if string(got) != "hello docs" {
		t.Errorf("extracted content = %q, want %q", got, "hello docs")
	}

	got, err = os.ReadFile(filepath.Join(destDir, "notes.txt"))
	if err != nil {
		t.Fatalf("failed to read extracted file: %v", err)
	}
	if string(got) != "note" {
		t.Errorf("extracted content = %q, want %q", got, "note")
	}

	info, err := os.Stat(filepath.Join(destDir, "docs"))
	if err != nil {
		t.Fatalf("failed to stat extracted dir: %v", err)
	}
	if !info.IsDir() {
		t.Error("docs should be a directory")
	}
}

// TestListAndExtract tests that --extract runs in addition to --list
func TestListAndExtract(t *testing.T) {
	tarPath := writeTestArchive(t)
	destDir := t.TempDir()

	output, err := executeCommand("-c", emptyConfigFile(t), "-l", "-x", "--no-progress", "-C", destDir, tarPath)
	if err != nil {
		t.Fatalf("list+extract failed: %v", err)
	}

	if !strings.Contains(output, "notes.txt") {
		t.Errorf("listing missing from combined run, got:\n%s", output)
	}
	if _, err := os.Stat(filepath.Join(destDir, "notes.txt")); err != nil {
		t.Errorf("extraction missing from combined run: %v", err)
	}
}

// TestMissingArchive tests the error for an unreadable archive
func TestMissingArchive(t *testing.T) {
	_, err := executeCommand("-c", emptyConfigFile(t), "-l", "/nonexistent/archive.tar")
	if err == nil {
		t.Fatal("expected an error for a missing archive")
	}
	if !strings.Contains(err.Error(), "failed to open") {
		t.Errorf("error = %q, want an open failure", err.Error())
	}
}

// TestVerifyRequiresDecrypt tests the --verify/--decrypt coupling
func TestVerifyRequiresDecrypt(t *testing.T) {
	tarPath := writeTestArchive(t)

	_, err := executeCommand("-c", emptyConfigFile(t), "-l", "--verify", tarPath)
	if err == nil {
		t.Fatal("expected an error for --verify without --decrypt")
	}
	if err.Error() != "--verify requires --decrypt" {
		t.Errorf("error = %q, want %q", err.Error(), "--verify requires --decrypt")
	}
}

// TestEncryptedArchive tests the decryption path through the command
func TestEncryptedArchive(t *testing.T) {
	const pw = "test-password-123"

	data := tartest.Archive([]tartest.Entry{
		{Name: "secret.txt", Mode: 0600, Data: []byte("classified")},
	}, 2)

	salt, err := crypto.GenerateSalt()
	if err != nil {
		t.Fatalf("failed to generate salt: %v", err)
	}
	aesKey, hmacKey, err := crypto.DeriveKeys(pw, salt)
	if err != nil {
		t.Fatalf("failed to derive keys: %v", err)
	}
	enc, err := crypto.NewEncryptor(aesKey, hmacKey, salt)
	if err != nil {
		t.Fatalf("failed to create encryptor: %v", err)
	}

	encPath := filepath.Join(t.TempDir(), "test.tar.enc")
	f, err := os.Create(encPath)
	if err != nil {
		t.Fatalf("failed to create container file: %v", err)
	}
	w, err := enc.WrapWriter(f)
	if err != nil {
		t.Fatalf("failed to wrap writer: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("failed to write container: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close container: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close file: %v", err)
	}

	cfgPath := emptyConfigFile(t)

	output, err := executeCommand("-c", cfgPath, "-l", "-d", "--password", pw, "--verify", encPath)
	if err != nil {
		t.Fatalf("encrypted list failed: %v", err)
	}
	if want := "secret.txt\n"; output != want {
		t.Errorf("encrypted list output = %q, want %q", output, want)
	}

	_, err = executeCommand("-c", cfgPath, "-l", "-d", "--password", "wrong", "--verify", encPath)
	if err == nil {
		t.Fatal("expected verification to fail with the wrong password")
	}
	if !strings.Contains(err.Error(), "HMAC") {
		t.Errorf("error = %q, want an HMAC failure", err.Error())
	}
}

// TestParseObjectURL tests object address parsing
func TestParseObjectURL(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{"simple", "s3://backups/archive.tar", "backups", "archive.tar", false},
		{"nested key", "s3://backups/2024/01/archive.tar", "backups", "2024/01/archive.tar", false},
		{"no key", "s3://backups", "", "", true},
		{"empty key", "s3://backups/", "", "", true},
		{"empty bucket", "s3:///archive.tar", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, key, err := parseObjectURL(tt.target)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseObjectURL(%q) error = %v, wantErr %v", tt.target, err, tt.wantErr)
			}
			if bucket != tt.wantBucket || key != tt.wantKey {
				t.Errorf("parseObjectURL(%q) = (%q, %q), want (%q, %q)",
					tt.target, bucket, key, tt.wantBucket, tt.wantKey)
			}
		})
	}
}

// TestApplyFlags tests the flag over config precedence
func TestApplyFlags(t *testing.T) {
	resetFlags()
	provider = "qiniu"
	outputDir = "/restore"
	noProgress = true
	decrypt = true
	includes = []string{"*.txt"}

	cfg := &config.Config{}
	cfg.Source.Provider = "aws"
	cfg.Extract.Dir = "."
	cfg.Display.Progress = true

	applyFlags(cfg)

	if cfg.Source.Provider != "qiniu" {
		t.Errorf("provider = %s, want qiniu", cfg.Source.Provider)
	}
	if cfg.Extract.Dir != "/restore" {
		t.Errorf("extract dir = %s, want /restore", cfg.Extract.Dir)
	}
	if cfg.Display.Progress {
		t.Error("progress should be disabled")
	}
	if !cfg.Decrypt.Enabled {
		t.Error("decryption should be enabled")
	}
	if len(cfg.Extract.Includes) != 1 || cfg.Extract.Includes[0] != "*.txt" {
		t.Errorf("includes = %v, want [*.txt]", cfg.Extract.Includes)
	}

	resetFlags()
}

// TestWriteFields tests the aligned field rendering
func TestWriteFields(t *testing.T) {
	fields := []archive.Field{
		{Label: "Filename", Value: "a.txt"},
		{Label: "Modification time", Value: "2023-10-01 12:30:05"},
	}

	var buf bytes.Buffer
	writeFields(&buf, fields)

	want := "         Filename : a.txt\n" +
		"Modification time : 2023-10-01 12:30:05\n" +
		"\n"
	if buf.String() != want {
		t.Errorf("writeFields output = %q, want %q", buf.String(), want)
	}
}
