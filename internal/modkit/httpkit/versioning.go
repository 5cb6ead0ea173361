package httpkit

import (
	"net/http"
	"strings"
)

// MountAPI mounts a subrouter under /api/{version}
//
//	httpkit.MountAPI(r, "v1", httpkit.CommonStack(), func(api httpkit.Router) {
//	  billing.MountRoutes(api)
//	})
func MountAPI(r Router, version string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	MountUnder(r, "/api/"+strings.Trim(version, "/"), mw, mount)
}

// MountAPIV1 is a convenience for MountAPI with version v1
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	MountAPI(r, "v1", mw, mount)
}

// MountVersioned mounts under /v{version} with no /api segment
// queue callbacks use this shape: /v1/cloud-tasks/...
func MountVersioned(r Router, version string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	v := strings.TrimPrefix(strings.Trim(version, "/"), "v")
	MountUnder(r, "/v"+v, mw, mount)
}
