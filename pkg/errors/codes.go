package errors

// Common errors (service 00).
var (
	ErrInternal     = Register(New(MakeCode(ServiceCommon, CategoryInternal, 1), 500, "Internal server error"))
	ErrInvalidParam = Register(New(MakeCode(ServiceCommon, CategoryRequest, 1), 400, "Invalid request parameters"))
	ErrNotFound     = Register(New(MakeCode(ServiceCommon, CategoryResource, 1), 404, "Resource not found"))
	ErrTimeout      = Register(New(MakeCode(ServiceCommon, CategoryTimeout, 1), 504, "Operation timed out"))
)

// Infrastructure errors (services 10-11).
var (
	ErrDatabase = Register(New(MakeCode(ServiceInfraDB, CategoryDatabase, 1), 500, "Database operation failed"))
	ErrCache    = Register(New(MakeCode(ServiceInfraCache, CategoryCache, 1), 500, "Cache operation failed"))
)

// Chat service errors (service 20).
var (
	ErrBotNotFound          = Register(New(MakeCode(ServiceChat, CategoryResource, 1), 404, "Bot not found"))
	ErrConversationNotFound = Register(New(MakeCode(ServiceChat, CategoryResource, 2), 404, "Conversation not found"))
	ErrStreamFailed         = Register(New(MakeCode(ServiceChat, CategoryNetwork, 1), 502, "Model stream failed"))
	ErrToolUnknown          = Register(New(MakeCode(ServiceChat, CategoryRequest, 1), 400, "Unknown tool"))
	ErrToolCallMalformed    = Register(New(MakeCode(ServiceChat, CategoryInternal, 1), 500, "Malformed tool call payload"))
	ErrToolFailed           = Register(New(MakeCode(ServiceChat, CategoryInternal, 2), 500, "Tool execution failed"))
)

// Retrieval service errors (service 21).
var (
	ErrEmptyInput        = Register(New(MakeCode(ServiceRetrieval, CategoryRequest, 1), 400, "Input text is empty"))
	ErrEmbeddingFailed   = Register(New(MakeCode(ServiceRetrieval, CategoryInternal, 1), 500, "Embedding generation failed"))
	ErrVectorStoreFailed = Register(New(MakeCode(ServiceRetrieval, CategoryInternal, 2), 500, "Vector store operation failed"))
	ErrSearchFailed      = Register(New(MakeCode(ServiceRetrieval, CategoryInternal, 3), 500, "Search failed"))
	ErrIndexFailed       = Register(New(MakeCode(ServiceRetrieval, CategoryInternal, 4), 500, "Source indexing failed"))
)
