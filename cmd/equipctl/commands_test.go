package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"equipment-go/internal/router"
	"equipment-go/internal/testutil"
	"equipment-go/internal/utils"
	"equipment-go/pkg/ownerlock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type session struct {
	t   *testing.T
	env map[string]string
	dir string
}

func newSession(t *testing.T) *session {
	t.Helper()

	cfg := testutil.NewConfig(t)
	cfg.RateLimit.AuthBurst = 1000
	jwtManager := utils.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Algorithm, time.Hour)
	srv := httptest.NewServer(router.SetupRouter(cfg, jwtManager, testutil.NewLogger(), testutil.NewDB(t), ownerlock.NewLocalLocker()))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	return &session{
		t:   t,
		dir: dir,
		env: map[string]string{
			"HOME":         dir,
			"EQUIP_SERVER": srv.URL + "/api",
		},
	}
}

func (s *session) run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr, func(k string) string { return s.env[k] })
	return code, stdout.String(), stderr.String()
}

func TestCLI_Workflow(t *testing.T) {
	s := newSession(t)

	code, out, errOut := s.run("register", "-username", "alice", "-password", "pw")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "registered as alice")

	token, err := os.ReadFile(filepath.Join(s.dir, ".equipctl", "token"))
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(string(token)))

	code, out, _ = s.run("list")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "no datasets")

	csvPath := filepath.Join(s.dir, "plant.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Equipment Name,Type,Flowrate,Pressure,Temperature\nPump-1,Pump,10,20,30\nPump-2,Pump,20,30,40\n"), 0o644))

	code, out, errOut = s.run("upload", csvPath)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "uploaded dataset 1")
	assert.Contains(t, out, "15.00")
	assert.Contains(t, out, "Pump")

	code, out, _ = s.run("list")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "plant.csv")

	code, out, _ = s.run("show", "1")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Pump-1")
	assert.Contains(t, out, "Pump-2")

	pdfPath := filepath.Join(s.dir, "report.pdf")
	code, out, errOut = s.run("pdf", "1", "-o", pdfPath)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "wrote "+pdfPath)
	data, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	code, out, _ = s.run("delete", "1")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "deleted dataset 1")

	code, _, errOut = s.run("show", "1")
	assert.Equal(t, 1, code)
	assert.Equal(t, "error: Dataset not found\n", errOut)
}

func TestCLI_Errors(t *testing.T) {
	s := newSession(t)

	code, _, errOut := s.run("login", "-username", "ghost", "-password", "x")
	assert.Equal(t, 1, code)
	assert.Equal(t, "error: Invalid credentials\n", errOut)

	code, _, errOut = s.run("list")
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(errOut, "error: "))

	code, _, _ = s.run("frobnicate")
	assert.Equal(t, 2, code)

	code, _, _ = s.run()
	assert.Equal(t, 2, code)

	code, _, errOut = s.run("-token", "bogus", "show", "abc")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, `invalid dataset id "abc"`)

	// pdf失败时不留下空文件
	pdfPath := filepath.Join(s.dir, "missing.pdf")
	code, _, _ = s.run("-token", "bogus", "pdf", "7", "-o", pdfPath)
	assert.Equal(t, 1, code)
	_, err := os.Stat(pdfPath)
	assert.True(t, os.IsNotExist(err))
}
