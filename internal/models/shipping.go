package models

// Shipping is a saved delivery address.
type Shipping struct {
	Base
	UserID           uint   `gorm:"index;not null" json:"userId"`
	ReceiverName     string `gorm:"not null" json:"receiverName"`
	ReceiverPhone    string `json:"receiverPhone"`
	ReceiverMobile   string `json:"receiverMobile"`
	ReceiverProvince string `json:"receiverProvince"`
	ReceiverCity     string `json:"receiverCity"`
	ReceiverDistrict string `json:"receiverDistrict"`
	ReceiverAddress  string `json:"receiverAddress"`
	ReceiverZip      string `json:"receiverZip"`
}
