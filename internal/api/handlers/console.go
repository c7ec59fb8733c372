package handlers

import (
	"embed"
	"html/template"

	"github.com/langchou/parkconsole/internal/service"
	"github.com/langchou/parkconsole/internal/view"
)

//go:embed templates/*.html
var templatesFS embed.FS

var consoleTemplate = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// Console 页面与 WebSocket 推送共用的数据
type Console struct {
	View   view.View      `json:"view"`
	Status service.Status `json:"status"`
	Texts  ConsoleTexts   `json:"texts"`
}

// ConsoleTexts 空列表提示文案
type ConsoleTexts struct {
	NoVehicles string `json:"no_vehicles"`
	NoParking  string `json:"no_parking"`
	NoLogs     string `json:"no_logs"`
}

var defaultTexts = ConsoleTexts{
	NoVehicles: view.NoVehiclesText,
	NoParking:  view.NoParkingText,
	NoLogs:     view.NoLogsText,
}

// BuildConsole 从当前快照和轮询状态构造控制台数据
func BuildConsole(source SnapshotSource) Console {
	return Console{
		View:   view.Derive(source.Current()),
		Status: source.Status(),
		Texts:  defaultTexts,
	}
}
