package models

import "cafe/src/types"

type Branch struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	Name     string `json:"name,omitempty"`
	Address  string `json:"address,omitempty"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	Halls []Hall `json:"halls,omitempty"`

	types.Timestamps
}

type Hall struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	BranchID uint   `json:"branch_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Capacity uint   `json:"capacity,omitempty"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	Branch Branch `json:"branch,omitempty"`

	types.Timestamps
}
