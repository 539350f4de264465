package application

import (
	"reflect"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/plantboard/plantboard/pkg/eventbus"
)

// Application is the runtime registry modules attach their services,
// controllers and schema to.
type Application interface {
	DB() *pgxpool.Pool
	EventPublisher() eventbus.EventBus
	Logger() *logrus.Logger
	Schema() *SchemaManager

	Controllers() []Controller
	Middleware() []mux.MiddlewareFunc
	Services() map[reflect.Type]interface{}
	Service(service interface{}) interface{}

	RegisterControllers(controllers ...Controller)
	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
	RegisterServices(services ...interface{})
}

// Controller mounts a group of routes on the root router.
type Controller interface {
	Key() string
	Register(r *mux.Router)
}

// Module is a self-contained feature set that wires itself into the
// application on load.
type Module interface {
	Name() string
	Register(app Application) error
}
