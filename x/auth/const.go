package auth

const (
	RequesterIdCtxKey      = "nsp-requesterId"
	RequesterIsAdminCtxKey = "nsp-requesterIsAdmin"
)

const (
	RequesterIdHeader = "nsp-requester-id"
)
