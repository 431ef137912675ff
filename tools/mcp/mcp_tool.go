package mcp

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/m4xw311/sleuth/config"
	"github.com/m4xw311/sleuth/errors"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"
)

// MCPClient manages the connection to a single MCP server subprocess.
type MCPClient struct {
	Name  string
	cmd   *exec.Cmd
	conn  *mcpsdk.ClientSession
	tools []*MCPTool
}

// NewMCPClient starts the MCP server subprocess and discovers the tools it provides.
func NewMCPClient(ctx context.Context, name, command string, args []string) (*MCPClient, error) {
	cmd := exec.Command(command, args...)
	cmd.Stderr = os.Stderr
	mcpClient := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "sleuth", Version: "v1.0.0"}, nil)
	conn, err := mcpClient.Connect(ctx, mcpsdk.NewCommandTransport(cmd))
	if err != nil {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
		return nil, errors.Wrapf(err, "failed to connect to MCP server '%s'", name)
	}
	client := &MCPClient{Name: name, cmd: cmd, conn: conn}

	params := &mcpsdk.ListToolsParams{}
	for {
		toolList, err := conn.ListTools(ctx, params)
		if err != nil {
			client.Stop()
			return nil, errors.Wrapf(err, "failed to list tools from MCP server '%s'", name)
		}
		for _, t := range toolList.Tools {
			client.tools = append(client.tools, &MCPTool{
				serverName:  name,
				toolName:    t.Name,
				description: t.Description,
				inputKey:    singleInputKey(t),
				client:      client,
			})
		}
		if toolList.NextCursor == "" {
			break
		}
		params.Cursor = toolList.NextCursor
	}

	log.Info("initialized MCP client", "server", name, "tools", len(client.tools))
	return client, nil
}

// ConnectAll starts every configured server concurrently. If any server fails
// the ones already started are stopped.
func ConnectAll(ctx context.Context, servers []config.MCPServer) ([]*MCPClient, error) {
	clients := make([]*MCPClient, len(servers))
	g, gctx := errgroup.WithContext(ctx)
	for i, srv := range servers {
		g.Go(func() error {
			c, err := NewMCPClient(gctx, srv.Name, srv.Command, srv.Args)
			if err != nil {
				return err
			}
			clients[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, c := range clients {
			if c != nil {
				c.Stop()
			}
		}
		return nil, err
	}
	return clients, nil
}

// Tools returns the tools discovered on this server.
func (c *MCPClient) Tools() []*MCPTool {
	return c.tools
}

// Stop terminates the MCP server subprocess.
func (c *MCPClient) Stop() error {
	if c.conn != nil {
		c.conn.Close()
	}
	if c.cmd != nil && c.cmd.Process != nil {
		log.Info("terminating MCP server", "server", c.Name)
		return c.cmd.Process.Kill()
	}
	return nil
}

// MCPTool is a tool provided by an external MCP server. It satisfies tools.Tool.
type MCPTool struct {
	serverName  string
	toolName    string
	description string
	inputKey    string
	client      *MCPClient
}

// Name returns "<server>.<tool>" so toolsets can select a whole server with "<server>.*".
func (t *MCPTool) Name() string {
	return t.serverName + "." + t.toolName
}

func (t *MCPTool) Description() string {
	return t.description
}

// Execute maps the text input onto the tool's arguments and calls the server.
func (t *MCPTool) Execute(ctx context.Context, input string) (string, error) {
	result, err := t.client.conn.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      t.toolName,
		Arguments: buildArguments(input, t.inputKey),
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to call tool '%s'", t.Name())
	}

	var sb strings.Builder
	for _, c := range result.Content {
		if text, ok := c.(*mcpsdk.TextContent); ok {
			sb.WriteString(text.Text)
		}
	}
	if result.IsError {
		return "", errors.New("tool '%s' reported an error: %s", t.Name(), sb.String())
	}
	return sb.String(), nil
}

// singleInputKey returns the name of the only parameter a tool takes, or "input".
func singleInputKey(t *mcpsdk.Tool) string {
	if t.InputSchema != nil {
		if len(t.InputSchema.Required) == 1 {
			return t.InputSchema.Required[0]
		}
		if len(t.InputSchema.Properties) == 1 {
			for k := range t.InputSchema.Properties {
				return k
			}
		}
	}
	return "input"
}

// buildArguments passes a JSON object through unchanged and wraps anything
// else under key.
func buildArguments(input, key string) map[string]any {
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, "{") {
		var args map[string]any
		if err := json.Unmarshal([]byte(trimmed), &args); err == nil {
			return args
		}
	}
	return map[string]any{key: input}
}
