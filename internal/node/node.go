package node

import "github.com/gin-gonic/gin"

// Node is an HTTP-serving process with a stable identity.
type Node interface {
	NodeID() string
	Kind() string
	HTTPRouter() *gin.Engine
	Serve() error
}
