package spot

import "github.com/zoobzio/capitan"

// Event keys for structured logging.
var (
	KeyTable    = capitan.NewStringKey("table")
	KeyEntity   = capitan.NewStringKey("entity")
	KeyOperator = capitan.NewStringKey("operator")
	KeyMethod   = capitan.NewStringKey("method")
	KeyTier     = capitan.NewStringKey("tier")
	KeySQL      = capitan.NewStringKey("sql")
	KeyQueryID  = capitan.NewStringKey("query_id")
	KeyField    = capitan.NewStringKey("field")
	KeyError    = capitan.NewStringKey("error")
	KeyDuration = capitan.NewDurationKey("duration")
)

// Signals emitted by spot.
var (
	FactoryCreated           = capitan.NewSignal("spot.factory.created", "Factory instance created")
	OperatorRegistered       = capitan.NewSignal("spot.operator.registered", "Where operator registered")
	MethodRegistered         = capitan.NewSignal("spot.method.registered", "Custom query method registered")
	MethodDispatched         = capitan.NewSignal("spot.method.dispatched", "Extension method resolved")
	QueryStarted             = capitan.NewSignal("spot.query.started", "Query execution started")
	QueryCompleted           = capitan.NewSignal("spot.query.completed", "Query execution completed")
	QueryFailed              = capitan.NewSignal("spot.query.failed", "Query execution failed")
	CountCompleted           = capitan.NewSignal("spot.count.completed", "Count query completed")
	SearchFulltextIneligible = capitan.NewSignal("spot.search.fulltext_ineligible", "Fulltext search on a field not declared fulltext")
)
