// Package view 从快照派生控制台三个面板的展示数据，纯函数，无副作用。
package view

import "github.com/langchou/parkconsole/internal/models"

// 占用状态
const (
	OccupancyFree     = "free"
	OccupancyOccupied = "occupied"
)

// 空列表提示
const (
	NoVehiclesText = "No cars found."
	NoParkingText  = "No parking areas found."
	NoLogsText     = "No logs available at this time."
)

// VehicleRow 车辆面板一行
type VehicleRow struct {
	ID           int64  `json:"id"`
	LicensePlate string `json:"license_plate"`
}

// ParkingRow 车位面板一行
type ParkingRow struct {
	ID           int64  `json:"id"`
	ParkingType  string `json:"parking_type"`
	LicensePlate string `json:"license_plate"`
	Occupancy    string `json:"occupancy"`
	Class        string `json:"class"` // 样式
}

// Occupied 是否有车
func (r ParkingRow) Occupied() bool {
	return r.Occupancy == OccupancyOccupied
}

// LogRow 日志面板一行
type LogRow struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Message   string `json:"message"`
}

// View 三个面板的展示数据
type View struct {
	Timestamp   string       `json:"timestamp"`
	VehicleRows []VehicleRow `json:"vehicle_rows"`
	ParkingRows []ParkingRow `json:"parking_rows"`
	LogRows     []LogRow     `json:"log_rows"`
	NoVehicles  bool         `json:"no_vehicles"`
	NoParking   bool         `json:"no_parking"`
	NoLogs      bool         `json:"no_logs"`
}

// Derive 由快照生成展示数据
func Derive(snap *models.Snapshot) View {
	v := View{
		VehicleRows: []VehicleRow{},
		ParkingRows: []ParkingRow{},
		LogRows:     []LogRow{},
	}

	if snap != nil {
		v.Timestamp = snap.Timestamp

		for _, car := range snap.Vehicles {
			v.VehicleRows = append(v.VehicleRows, VehicleRow{ID: car.ID, LicensePlate: car.LicensePlate})
		}

		for _, area := range snap.ParkingAreas {
			if area.IsAdministrative() {
				continue
			}
			v.ParkingRows = append(v.ParkingRows, parkingRow(area))
		}

		for _, entry := range snap.Logs {
			v.LogRows = append(v.LogRows, LogRow{
				ID:        entry.ID,
				Timestamp: entry.Timestamp,
				Type:      entry.Type,
				Message:   entry.Log,
			})
		}
	}

	v.NoVehicles = len(v.VehicleRows) == 0
	v.NoParking = len(v.ParkingRows) == 0
	v.NoLogs = len(v.LogRows) == 0
	return v
}

func parkingRow(area models.ParkingArea) ParkingRow {
	row := ParkingRow{
		ID:           area.ID,
		ParkingType:  area.ParkingType,
		LicensePlate: area.Plate(),
		Occupancy:    OccupancyOccupied,
		Class:        "text-red-500",
	}
	if area.IsFree() {
		row.Occupancy = OccupancyFree
		row.Class = "text-green-500"
	}
	return row
}
