package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenariosDir = filepath.Join("..", "..", "testdata", "scenarios")

// writeScenarioDir creates a scenarios directory holding one compile-only
// scenario against the shop catalog.
func writeScenarioDir(t *testing.T, sql string) string {
	t.Helper()
	catalog, err := filepath.Abs(shopCatalog)
	require.NoError(t, err)

	dir := t.TempDir()
	content := `name: delete_order
description: Delete one order by key
catalog: ` + catalog + `
steps:
  - name: delete order 7
    request: {kind: delete, target: Order, keys: {id: 7}}
    expect:
      sql: ` + sql + `
      params: [7]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "delete_order.yaml"), []byte(content), 0644))
	return dir
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := runCLI(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := runCLI(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	output, err := runCLI(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, output, "No scenarios found.")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	output, err := runCLI(t, "--format", "json", "test", t.TempDir())
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Total)
	assert.Empty(t, resp.Data.Scenarios)
}

func TestTestCommandShopScenarios(t *testing.T) {
	output, err := runCLI(t, "test", scenariosDir)
	require.NoError(t, err)

	assert.Contains(t, output, "✓ shop_compile")
	assert.Contains(t, output, "✓ shop_roundtrip")
	assert.Contains(t, output, "Test Summary: 2 passed, 0 failed, 2 total")
}

func TestTestCommandFilterJSON(t *testing.T) {
	output, err := runCLI(t, "--format", "json", "test", scenariosDir, "--filter", "*_compile")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "shop_compile", resp.Data.Scenarios[0].Name)
	assert.True(t, resp.Data.Scenarios[0].Pass)
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := writeScenarioDir(t, "DELETE FROM ORDER_ITEMS WHERE ID=?")

	output, err := runCLI(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, output, "✗ delete_order")
	assert.Contains(t, output, "delete order 7: sql")
	assert.Contains(t, output, "1 failed")
}

func TestTestCommandUpdateAndCompareGolden(t *testing.T) {
	dir := writeScenarioDir(t, "DELETE FROM ORDERS WHERE ID=?")

	output, err := runCLI(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, output, "✓ delete_order (golden updated)")

	goldenPath := filepath.Join(dir, "golden", "delete_order.golden")
	data, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name": "delete_order"`)
	assert.Contains(t, string(data), "DELETE FROM ORDERS WHERE ID=?")

	// The golden file itself is not picked up as a scenario.
	output, err = runCLI(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, output, "1 passed, 0 failed, 1 total")

	require.NoError(t, os.WriteFile(goldenPath, []byte("{}\n"), 0644))
	output, err = runCLI(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, output, "Golden file mismatch")
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: broken\n"), 0644))

	output, err := runCLI(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, output, "✗ broken.yaml")
	assert.Contains(t, output, "failed to load scenario")
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yml", "notes.txt", "sub/c.yaml", "golden/a.golden", "golden/stale.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, nil, 0644))
	}

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "b.yml"),
		filepath.Join(dir, "sub", "c.yaml"),
	}, files)

	files, err = findScenarioFiles(dir, "[ab]")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = findScenarioFiles(dir, "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("scenarios", "golden", "shop_compile.golden"),
		goldenFilePath(filepath.Join("scenarios", "shop_compile.yaml")))
}
