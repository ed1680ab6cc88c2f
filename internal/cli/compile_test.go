package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var shopCatalog = filepath.Join("..", "..", "testdata", "catalog", "shop.yaml")

const bigOrdersRequest = `kind: select
target: Order
select: [customerName, total]
filter:
  and:
    - eq: [{property: customerName}, {literal: ann}]
    - gt: [{property: total}, {literal: 10}]
orderby: [total desc]
top: 5
`

const bigOrdersSQL = "SELECT T0.CUSTOMER_NAME AS CUSTOMERNAME, T0.TOTAL AS TOTAL FROM ORDERS AS T0 " +
	"WHERE T0.CUSTOMER_NAME = ? AND T0.TOTAL > ? ORDER BY T0.TOTAL DESC LIMIT 5"

// writeFile writes content to name in a fresh temp directory.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// runCLI runs the root command with args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCompileRequest(t *testing.T) {
	req := writeFile(t, "orders.yaml", bigOrdersRequest)

	output, err := runCLI(t, "compile", "-c", shopCatalog, "-d", "postgres", req)
	require.NoError(t, err)

	assert.Contains(t, output, "✓ Compiled 1 statement(s) for postgres")
	assert.Contains(t, output, bigOrdersSQL)
	assert.Contains(t, output, "params: ann, 10")
}

func TestCompileRequestJSON(t *testing.T) {
	req := writeFile(t, "orders.yaml", bigOrdersRequest)

	output, err := runCLI(t, "--format", "json", "compile", "-c", shopCatalog, "-d", "postgres", req)
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "postgres", resp.Data.Dialect)
	require.Len(t, resp.Data.Statements, 1)

	stmt := resp.Data.Statements[0]
	assert.Equal(t, "select", stmt.Kind)
	assert.Equal(t, bigOrdersSQL, stmt.SQL)
	assert.Equal(t, []string{"ann", "10"}, stmt.Params)
	assert.Equal(t, []string{"CUSTOMERNAME", "TOTAL"}, stmt.Columns)
	assert.NotEmpty(t, stmt.ID)
}

func TestCompileMultipleDocuments(t *testing.T) {
	req := writeFile(t, "requests.yaml", bigOrdersRequest+`---
kind: delete
target: Order
keys: {id: 7}
`)

	output, err := runCLI(t, "compile", "-c", shopCatalog, req)
	require.NoError(t, err)

	assert.Contains(t, output, "✓ Compiled 2 statement(s) for ansi")
	assert.Contains(t, output, "-- "+req+" (select)")
	assert.Contains(t, output, "-- "+req+"#2 (delete)")
	assert.Contains(t, output, "DELETE FROM ORDERS WHERE ID=?")
	assert.Contains(t, output, "params: 7")
}

func TestCompileFromStdin(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("kind: delete\ntarget: Order\nkeys: {id: 7}\n"))
	cmd.SetArgs([]string{"compile", "-c", shopCatalog, "-"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "DELETE FROM ORDERS WHERE ID=?")
}

func TestCompileOutputToFile(t *testing.T) {
	req := writeFile(t, "orders.yaml", bigOrdersRequest)
	outputFile := filepath.Join(t.TempDir(), "statements.json")

	output, err := runCLI(t, "compile", "-c", shopCatalog, "-d", "postgres", "-o", outputFile, req)
	require.NoError(t, err)
	assert.Contains(t, output, "Wrote statements to "+outputFile)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	var result CompilationResult
	require.NoError(t, json.Unmarshal(data, &result))
	require.Len(t, result.Statements, 1)
	assert.Equal(t, bigOrdersSQL, result.Statements[0].SQL)
}

func TestCompileUnknownType(t *testing.T) {
	req := writeFile(t, "nope.yaml", "kind: select\ntarget: Nope\n")

	output, err := runCLI(t, "compile", "-c", shopCatalog, req)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	assert.Contains(t, output, "✗ Compilation failed")
	assert.Contains(t, output, ErrCodeCompile)
	assert.Contains(t, output, "Nope")
}

func TestCompileInvalidRequestJSON(t *testing.T) {
	req := writeFile(t, "delete.yaml", "kind: delete\ntarget: Order\n")

	output, err := runCLI(t, "--format", "json", "compile", "-c", shopCatalog, req)
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeBadRequest, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "delete needs keys")
}

func TestCompileMissingCatalog(t *testing.T) {
	req := writeFile(t, "orders.yaml", bigOrdersRequest)

	output, err := runCLI(t, "compile", "-c", "/nonexistent/catalog.yaml", req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, output, "✗ Loading catalog failed")
}

func TestCompileMissingRequestFile(t *testing.T) {
	_, err := runCLI(t, "compile", "-c", shopCatalog, "/nonexistent/request.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNotFound)
}

func TestCompileEmptyRequestFile(t *testing.T) {
	req := writeFile(t, "empty.yaml", "")

	_, err := runCLI(t, "compile", "-c", shopCatalog, req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNoRequests)
}

func TestCompileCatalogFlagRequired(t *testing.T) {
	req := writeFile(t, "orders.yaml", bigOrdersRequest)

	_, err := runCLI(t, "compile", req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog")
}

func TestCompileVerboseOutput(t *testing.T) {
	req := writeFile(t, "orders.yaml", bigOrdersRequest)

	errBuf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{"-v", "compile", "-c", shopCatalog, req})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, errBuf.String(), "Loaded 1 request(s) for ansi")
}
