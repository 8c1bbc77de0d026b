package model

import "time"

// OrderStatusLog records every admin status change on an order.
type OrderStatusLog struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"orderId" gorm:"not null;index"`
	FromStatus OrderStatus `json:"fromStatus" gorm:"type:varchar(20);not null"`
	ToStatus   OrderStatus `json:"toStatus" gorm:"type:varchar(20);not null;index"`
	ChangedBy  uint        `json:"changedBy" gorm:"not null"`
	CreatedAt  time.Time   `json:"createdAt"`

	// Relations
	Order *Order `json:"-" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}
