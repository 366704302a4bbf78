package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/anbtech/storebot/internal/catalog"
	"github.com/anbtech/storebot/internal/ledger"
)

// NewMCPServer creates an MCP server exposing the admin operations as tools.
func NewMCPServer(d Deps, version string) *server.MCPServer {
	if d.Catalog == nil {
		d.Catalog = catalog.Default()
	}

	s := server.NewMCPServer(
		"storebot",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("storebot: sales funnel, catalog prices and customer sessions of the WhatsApp store assistant."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("sales_report",
			mcp.WithDescription("Render the sales report: completed sales, pending orders and payments promised for today."),
		),
		mcpSalesReport(d),
	)

	s.AddTool(
		mcp.NewTool("list_catalog",
			mcp.WithDescription("List every model with its base price, storage surcharges and colors."),
		),
		mcpListCatalog(d),
	)

	s.AddTool(
		mcp.NewTool("quote_price",
			mcp.WithDescription("Quote the price of a model in a color and storage size."),
			mcp.WithString("model", mcp.Description("Model name, e.g. iPhone 13"), mcp.Required()),
			mcp.WithString("color", mcp.Description("Color name"), mcp.Required()),
			mcp.WithNumber("storage_gb", mcp.Description("Storage capacity in GB"), mcp.Required()),
		),
		mcpQuotePrice(d),
	)

	s.AddTool(
		mcp.NewTool("record_promise",
			mcp.WithDescription("Record a payment a customer promised to make on a weekday."),
			mcp.WithString("user_id", mcp.Description("Customer phone number"), mcp.Required()),
			mcp.WithString("item", mcp.Description("Item the payment is for"), mcp.Required()),
			mcp.WithString("day", mcp.Description("Weekday name, e.g. Friday"), mcp.Required()),
			mcp.WithNumber("amount", mcp.Description(fmt.Sprintf("Amount in rand (default %d)", ledger.DefaultAmount))),
		),
		mcpRecordPromise(d),
	)

	s.AddTool(
		mcp.NewTool("list_sessions",
			mcp.WithDescription("List customer sessions with follow-up and reminder state."),
		),
		mcpListSessions(d),
	)

	s.AddResource(
		mcp.NewResource(
			"storebot://catalog",
			"Catalog",
			mcp.WithResourceDescription("The product catalog as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceCatalog(d),
	)

	return s
}

func mcpSalesReport(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		report, err := d.Assistant.SalesReport(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to build report: %v", err)), nil
		}
		return mcpText(report), nil
	}
}

func mcpListCatalog(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var b strings.Builder
		for _, e := range d.Catalog.Entries() {
			fmt.Fprintf(&b, "%s: from R%d", e.Model, e.BasePrice)
			for _, gb := range e.StorageOptions() {
				fmt.Fprintf(&b, ", %dGB +R%d", gb, e.Storage[gb])
			}
			fmt.Fprintf(&b, " (%s)\n", strings.Join(e.Colors, ", "))
		}
		return mcpText(b.String()), nil
	}
}

func mcpQuotePrice(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		model, err := req.RequireString("model")
		if err != nil {
			return mcpError("model is required"), nil
		}
		color, err := req.RequireString("color")
		if err != nil {
			return mcpError("color is required"), nil
		}
		gb := req.GetInt("storage_gb", 0)
		if gb <= 0 {
			return mcpError("storage_gb must be a positive number"), nil
		}

		price, err := d.Catalog.Price(model, color, gb)
		switch {
		case errors.Is(err, catalog.ErrUnknownModel),
			errors.Is(err, catalog.ErrUnknownStorage),
			errors.Is(err, catalog.ErrUnknownColor):
			return mcpError(err.Error()), nil
		case err != nil:
			return mcpError(fmt.Sprintf("failed to price: %v", err)), nil
		}

		e, _ := d.Catalog.Lookup(model)
		return mcpText(fmt.Sprintf("%s (%s, %dGB): R%d", e.Model, color, gb, price)), nil
	}
}

func mcpRecordPromise(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := req.RequireString("user_id")
		if err != nil {
			return mcpError("user_id is required"), nil
		}
		item, err := req.RequireString("item")
		if err != nil {
			return mcpError("item is required"), nil
		}
		day, err := req.RequireString("day")
		if err != nil {
			return mcpError("day is required"), nil
		}
		amount := req.GetInt("amount", ledger.DefaultAmount)

		rec, err := recordPromise(ctx, d.Ledger, PromiseRequest{UserID: userID, Item: item, Amount: &amount, Day: day})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to record promise: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Recorded promise %s: %s owes R%d for %s on %s", rec.ID, rec.UserID, rec.Amount, rec.Item, rec.Day)), nil
	}
}

func mcpListSessions(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		b, err := json.MarshalIndent(summarize(d.Sessions.Snapshot()), "", "  ")
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal sessions: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceCatalog(d Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(d.Catalog.Entries())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal catalog: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
