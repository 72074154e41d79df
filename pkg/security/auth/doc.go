// Package auth protects the admin listener with bearer tokens.
//
// Tokens come from the security.admin section of the configuration. A
// request must carry "Authorization: Bearer <token>" for an enabled token
// unless its path is listed as public:
//
//	validator := auth.FromConfig(cfg.Security.Admin)
//	mw := auth.NewMiddleware(validator, cfg.Security.Admin.PublicPaths, logger)
//	http.ListenAndServe(addr, mw.Handle(mux))
//
// Token comparison runs in constant time over every configured token.
package auth
