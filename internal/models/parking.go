package models

// 管理区域类型：道路、出入口等基础设施，不是可停放车位
const (
	ParkingTypeRoad     = "ROAD"
	ParkingTypeEntrance = "ENTRANCE"
	ParkingTypeExit     = "EXIT"
	ParkingTypeExitV2   = "EXITV2"
)

// UnknownPlate 识别失败时后端填入的车牌占位值
const UnknownPlate = "UNKNOWN"

// ParkingArea 停车区域（车位或道路等基础设施区域）
type ParkingArea struct {
	ID           int64   `json:"id"`
	ParkingType  string  `json:"parking_type"`
	LicensePlate *string `json:"license_plate"` // 无车时为 null
	BottomRightX float64 `json:"bottom_right_x"`
	BottomRightY float64 `json:"bottom_right_y"`
	TopLeftX     float64 `json:"top_left_x"`
	TopLeftY     float64 `json:"top_left_y"`
}

// IsAdministrative 是否为管理区域（ROAD/ENTRANCE/EXIT/EXITV2）
func (a ParkingArea) IsAdministrative() bool {
	switch a.ParkingType {
	case ParkingTypeRoad, ParkingTypeEntrance, ParkingTypeExit, ParkingTypeExitV2:
		return true
	}
	return false
}

// Plate 返回车牌，null 时返回空串
func (a ParkingArea) Plate() string {
	if a.LicensePlate == nil {
		return ""
	}
	return *a.LicensePlate
}

// IsFree 车牌为空、null 或 UNKNOWN 时视为空闲
func (a ParkingArea) IsFree() bool {
	plate := a.Plate()
	return plate == "" || plate == UnknownPlate
}
