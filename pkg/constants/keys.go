package constants

type ContextKey string

const (
	AppKey       ContextKey = "app"
	LoggerKey    ContextKey = "logger"
	ParamsKey    ContextKey = "params"
	PoolKey      ContextKey = "pool"
	TxKey        ContextKey = "tx"
	TenantKey    ContextKey = "tenant"
	UserKey      ContextKey = "user"
	RequestStart ContextKey = "requestStart"
)
