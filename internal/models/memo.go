package models

import "time"

// Memo priorities
const (
	MemoPriorityHigh   = "高"
	MemoPriorityMedium = "中"
	MemoPriorityLow    = "低"
)

// Memo statuses
const (
	MemoStatusTodo = "todo"
	MemoStatusDone = "done"
)

// Memo categories
const (
	MemoCategoryDaily   = "日常"
	MemoCategoryTech    = "技术"
	MemoCategoryContent = "内容"
	MemoCategoryGame    = "游戏"
)

// MemoTask is a dated to-do item
type MemoTask struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Details     string    `json:"details"`
	Date        string    `json:"date"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	Category    string    `json:"category"`
	OwnerUserID int       `json:"ownerUserId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// OwnerID implements Owned
func (m *MemoTask) OwnerID() int { return m.OwnerUserID }

// MemoDraft is the payload of the create memo task request
type MemoDraft struct {
	Title    string `json:"title"`
	Details  string `json:"details"`
	Date     string `json:"date"`
	Priority string `json:"priority"`
	Status   string `json:"status"`
	Category string `json:"category"`
}

// MemoPatch is the payload of the update memo task request
type MemoPatch struct {
	Title    *string `json:"title"`
	Details  *string `json:"details"`
	Date     *string `json:"date"`
	Priority *string `json:"priority"`
	Status   *string `json:"status"`
	Category *string `json:"category"`
}

// MemoStatusRequest is the body of the memo status change request
type MemoStatusRequest struct {
	Status string `json:"status"`
}
