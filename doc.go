// Package backend provides the Sprinta API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/affiliations: Agent and player affiliation state machine
// - internal/notifications: Notification center, preferences and grouping
// - internal/realtime: SSE and WebSocket delivery hub
// - internal/search: Elasticsearch profile search with database fallback
// - internal/storage: S3 image uploads
// - internal/email: SES notification emails
// - internal/jobs: Scheduled maintenance
// - internal/database: Database connection and migrations
// - internal/middleware: HTTP middleware (auth, rate limiting, tracing)
// - internal/seed: Development and test data

// See the individual package documentation for detailed API reference.
package backend
