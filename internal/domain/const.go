package domain

const (
	RequesterIdCtxKey = "hl-requesterId"
)

const (
	RequesterIdHeader = "hl-requester-id"
)
