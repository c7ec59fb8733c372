package models

// Vehicle 场内已识别车辆
type Vehicle struct {
	ID           int64  `json:"id"`
	LicensePlate string `json:"license_plate"`
}
