package auth_test

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/schoolauth/pkg/authsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * This includes container setup, service operations, and assertions.
 */

const (
	testImageName = "schoolauth-test:latest"

	jwtSecret     = "e2e-test-secret-do-not-use"
	adminEmail    = "admin@school.com"
	adminPassword = "Admin123!"
	userPassword  = "secret123"
)

// TestMain manages the test lifecycle, builds the Docker image once before
// all tests and cleans it up after all tests complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building Auth Service Docker image...")

	// Build the Docker image once before all tests
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Auth Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

// buildDockerImage builds the test Docker image if it doesn't exist.
func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/auth/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

// cleanupDockerImage removes the test Docker image.
func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

// baseEnv is the container environment shared by every test. Rate limits
// are relaxed because tests make many rapid requests.
func baseEnv() map[string]string {
	return map[string]string{
		"JWT_SECRET":          jwtSecret,
		"AUTH_ISSUER":         "school-auth",
		"AUTH_DATABASE_FILE":  "/data/auth.db",
		"SEED_ADMIN_EMAIL":    adminEmail,
		"SEED_ADMIN_PASSWORD": adminPassword,
		"ENV":                 "test",
		"LOG_LEVEL":           "info",
		"LOG_FORMAT":          "json",

		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "1000",
		"RATELIMIT_MODERATE_REQUESTS": "1000",
		"RATELIMIT_MODERATE_BURST":    "1000",
	}
}

type containerOption func(*testcontainers.ContainerRequest)

// withEnv overrides or adds environment variables.
func withEnv(env map[string]string) containerOption {
	return func(req *testcontainers.ContainerRequest) {
		maps.Copy(req.Env, env)
	}
}

// withDefaultRateLimits drops the relaxed limits so the production
// defaults apply.
func withDefaultRateLimits() containerOption {
	return func(req *testcontainers.ContainerRequest) {
		for k := range req.Env {
			if strings.HasPrefix(k, "RATELIMIT_") {
				delete(req.Env, k)
			}
		}
	}
}

// withNetwork attaches the container to a user-defined network.
func withNetwork(name string) containerOption {
	return func(req *testcontainers.ContainerRequest) {
		req.Networks = append(req.Networks, name)
	}
}

// setupAuthContainer starts the auth service in a container and returns the base URL.
func setupAuthContainer(t *testing.T, opts ...containerOption) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          baseEnv(),
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}
	for _, opt := range opts {
		opt(&req)
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, mappedPort.Port())
}

// setupRedis starts Redis on a fresh network and returns the network name
// and the address other containers reach it on.
func setupRedis(t *testing.T) (string, string) {
	t.Helper()
	ctx := context.Background()

	nw, err := network.New(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := nw.Remove(ctx); err != nil {
			t.Logf("failed to remove network: %v", err)
		}
	})

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:          "redis:7-alpine",
			ExposedPorts:   []string{"6379/tcp"},
			Networks:       []string{nw.Name},
			NetworkAliases: map[string][]string{nw.Name: {"redis"}},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate redis container: %v", err)
		}
	})

	return nw.Name, "redis:6379"
}

// loginAdmin logs in as the seeded administrator.
func loginAdmin(t *testing.T, client *authsdk.SDKClient) *authsdk.Session {
	t.Helper()
	session, err := client.Login(t.Context(), adminEmail, adminPassword)
	require.NoError(t, err, "seeded admin should be able to log in")
	return session
}

// registerUser creates an account with the given role and returns its session.
func registerUser(t *testing.T, client *authsdk.SDKClient, email, role string) (*authsdk.Session, *authsdk.User) {
	t.Helper()
	session, user, err := client.Register(t.Context(), authsdk.RegisterRequest{
		Email:     email,
		Password:  userPassword,
		FirstName: "Test",
		LastName:  "User",
		Role:      role,
	})
	require.NoError(t, err, "register %s", email)
	require.NotEmpty(t, session.AccessToken())
	require.NotEmpty(t, session.RefreshToken())
	return session, user
}

// requireStatus asserts err is an APIError carrying status.
func requireStatus(t *testing.T, err error, status int, msg string) {
	t.Helper()
	require.Error(t, err, msg)
	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr), "%s: want APIError, got %v", msg, err)
	require.Equal(t, status, apiErr.StatusCode, "%s: %s", msg, apiErr.Message)
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
