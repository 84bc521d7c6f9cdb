package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ServerName    = "support-desk-knowledge"
	ServerVersion = "v1.0.0"
)

// Tool names
const (
	ToolSearchKnowledge      = "searchKnowledgeBase"
	ToolGetKnowledgeItem     = "get_knowledge_item"
	ToolConversationInsights = "get_conversation_insights"
)

// NewServer creates an MCP server with the desk tools registered
func NewServer(handler *Handler) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolSearchKnowledge,
		Description: "Search the support knowledge base for product facts, after-sales policies and how-to guides. Matches titles, contents and tags, case-insensitively.",
	}, handler.SearchKnowledge)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolGetKnowledgeItem,
		Description: "Get one knowledge base item by ID, as returned by searchKnowledgeBase.",
	}, handler.GetKnowledgeItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolConversationInsights,
		Description: "Get the reply suggestions, summary and customer sentiment for the conversation the agent currently has open.",
	}, handler.ConversationInsights)

	return server
}
