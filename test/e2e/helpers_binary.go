//go:build e2e

package e2e

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// vortexServer manages a running Vortex server process.
type vortexServer struct {
	cmd     *exec.Cmd
	dataDir string
	address string
	apiKey  string
	logFile string
}

// startVortex launches the Vortex binary and waits for it to become healthy.
// Vortex is configured entirely via environment variables.
func startVortex(t *testing.T, extraEnv ...string) *vortexServer {
	t.Helper()
	if vortexBin == "" {
		t.Skip("vortex binary not available (set VORTEX_BIN or add to PATH)")
	}
	return launch(t, t.TempDir(), extraEnv...)
}

func launch(t *testing.T, dataDir string, extraEnv ...string) *vortexServer {
	t.Helper()

	apiKey := "e2e-test-api-key"
	port := freePort(t)
	logFile := filepath.Join(dataDir, fmt.Sprintf("vortex-%d.log", port))

	cmd := exec.Command(vortexBin)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("VORTEX_PORT=%d", port),
		"VORTEX_DB_DRIVER=sqlite",
		"VORTEX_DB_PATH="+filepath.Join(dataDir, "vortex.db"),
		"VORTEX_API_KEY="+apiKey,
		"VORTEX_CONFIG_PATH="+filepath.Join(dataDir, "nonexistent.yaml"),
		"VORTEX_ENV_FILE="+filepath.Join(dataDir, "nonexistent.env"),
		"VORTEX_SYNC_INTERVAL=0s",
		"GOOGLE_SHEET_ID_TIME_ENTRIES=",
		"GOOGLE_APPLICATION_CREDENTIALS=",
		"GOOGLE_CLIENT_EMAIL=",
		"GOOGLE_PRIVATE_KEY=",
		"VORTEX_ARCHIVE_BUCKET=",
	)
	cmd.Env = append(cmd.Env, extraEnv...)

	lf, err := os.Create(logFile)
	if err != nil {
		t.Fatalf("create log file: %v", err)
	}
	cmd.Stdout = lf
	cmd.Stderr = lf

	if err := cmd.Start(); err != nil {
		lf.Close()
		t.Fatalf("start vortex: %v", err)
	}

	s := &vortexServer{
		cmd:     cmd,
		dataDir: dataDir,
		address: fmt.Sprintf("127.0.0.1:%d", port),
		apiKey:  apiKey,
		logFile: logFile,
	}
	t.Cleanup(func() {
		s.stop()
		lf.Close()
	})

	if err := s.waitHealthy(10 * time.Second); err != nil {
		log, _ := os.ReadFile(logFile)
		t.Fatalf("vortex not healthy: %v\n%s", err, log)
	}
	return s
}

// restartOnSameData stops the server and starts a new one on the same data directory.
func (s *vortexServer) restartOnSameData(t *testing.T) *vortexServer {
	t.Helper()
	s.stop()
	time.Sleep(200 * time.Millisecond) // allow port release
	return launch(t, s.dataDir)
}

func (s *vortexServer) stop() {
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Signal(os.Interrupt)
		_ = s.cmd.Wait()
	}
}

func (s *vortexServer) baseURL() string {
	return "http://" + s.address
}

func (s *vortexServer) waitHealthy(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	url := s.baseURL() + "/api/v1/health"

	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("vortex not healthy after %s", timeout)
}

// do sends a request, authenticated unless apiKey is empty, and returns the
// status and body.
func (s *vortexServer) do(t *testing.T, method, path, apiKey string) (int, []byte) {
	t.Helper()
	req, _ := http.NewRequest(method, s.baseURL()+path, nil)
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body
}

func decodeJSON[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return v
}

// freePort returns a free TCP port.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
