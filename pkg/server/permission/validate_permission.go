package permission

import (
	"github.com/mpapenbr/ledtrack-go/log"
	"github.com/mpapenbr/ledtrack-go/pkg/server/auth"
)

type Permission string

const (
	PermissionImportSession Permission = "import-session"
	PermissionDeleteSession Permission = "delete-session"
	PermissionReadSession   Permission = "read-session"
)

const (
	PermissionControlPlayback Permission = "control-playback"
	PermissionViewFrames      Permission = "view-frames"
)

type PermissionEvaluator interface {
	HasPermission(auth auth.Authentication, perm Permission) bool
}

func NewPermissionEvaluator() PermissionEvaluator {
	if ret, err := NewOpaPermissionEvaluator(); err != nil {
		log.Default().Error("failed to create permission evaluator", log.ErrorField(err))
		return nil
	} else {
		return ret
	}
}
