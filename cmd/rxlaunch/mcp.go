package main

import (
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v2"

	"github.com/deixis/rxlaunch/internal/httpapi"
	rxmcp "github.com/deixis/rxlaunch/internal/mcp"
)

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start the MCP server on stdio, or over HTTP with --http",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "http",
				Usage:   "Serve MCP, /metrics, /healthz and /runs on this address (e.g. :9090)",
				EnvVars: prefixEnvVar("HTTP_ADDR"),
			},
			&cli.BoolFlag{
				Name:  "instructions",
				Usage: "Print model instructions and exit",
			},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("instructions") {
				fmt.Fprint(c.App.Writer, rxmcp.Instructions)
				return nil
			}

			env, err := newEnvironment(c)
			if err != nil {
				return err
			}
			defer env.close()

			server := rxmcp.NewServer(env.engine, env.store)

			if addr := c.String("http"); addr != "" {
				api := &httpapi.Server{
					Engine:   env.engine,
					Store:    env.store,
					MCP:      server,
					Gatherer: env.registry,
					Log:      env.log,
				}
				return api.ListenAndServe(c.Context, addr)
			}
			return server.Run(c.Context, &mcpsdk.StdioTransport{})
		},
	}
}
