package dashboard

import (
	"embed"

	"github.com/plantboard/plantboard/modules/dashboard/handlers"
	"github.com/plantboard/plantboard/modules/dashboard/infrastructure/persistence"
	"github.com/plantboard/plantboard/modules/dashboard/presentation/controllers"
	"github.com/plantboard/plantboard/modules/dashboard/services"
	"github.com/plantboard/plantboard/pkg/application"
)

//go:embed infrastructure/persistence/schema/dashboard-schema.sql
var schemaFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	ddl, err := schemaFiles.ReadFile("infrastructure/persistence/schema/dashboard-schema.sql")
	if err != nil {
		return err
	}
	app.Schema().Register("dashboard", string(ddl))

	kpiRepo := persistence.NewKPIRepository()
	staffRepo := persistence.NewStaffRepository()

	app.RegisterServices(
		services.NewKPIService(kpiRepo, app.EventPublisher()),
		services.NewStaffService(staffRepo, app.EventPublisher()),
		services.NewCSVImportService(kpiRepo, staffRepo, app.EventPublisher()),
		services.NewExcelExportService(app.DB()),
	)

	app.RegisterControllers(
		controllers.NewDashboardAPIController(app),
		controllers.NewCSVUploadController(app),
		controllers.NewExportController(app),
		controllers.NewOpsHealthController(app),
	)

	handlers.RegisterImportEventHandlers(app)

	return nil
}

func (m *Module) Name() string {
	return "dashboard"
}
