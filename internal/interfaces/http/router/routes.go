package router

import (
	"github.com/gin-gonic/gin"
	"github.com/joinville/accounts/internal/interfaces/http/handler"
)

// Handlers groups the handlers served under the versioned API
type Handlers struct {
	Auth      *handler.AuthHandler
	Account   *handler.AccountHandler
	Profile   *handler.ProfileHandler
	Signature *handler.SignatureHandler
	Access    *handler.AccessHandler
}

// Guards are the per-route middlewares. A nil guard lets everything through.
type Guards struct {
	// RateLimit protects the anonymous routes that check credentials or send mail
	RateLimit gin.HandlerFunc
	// Staff restricts the administration of applications and accesses
	Staff gin.HandlerFunc
}

func (g Guards) limited(h gin.HandlerFunc) []gin.HandlerFunc {
	if g.RateLimit == nil {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{g.RateLimit, h}
}

// PortalGroups returns the route groups of the accounts portal
func PortalGroups(h Handlers, g Guards) []*DomainGroup {
	auth := NewDomainGroup("auth", "/auth")
	auth.POST("/login", g.limited(h.Auth.Login)...).
		POST("/refresh", h.Auth.RefreshToken).
		POST("/logout", h.Auth.Logout).
		GET("/me", h.Auth.GetCurrentUser).
		PUT("/password", h.Auth.ChangePassword).
		PUT("/email", h.Auth.ChangeEmail).
		POST("/exit", h.Auth.Exit).
		POST("/tokens/redeem", h.Auth.RedeemToken)

	accounts := NewDomainGroup("accounts", "/accounts")
	accounts.POST("/people", g.limited(h.Account.RegisterPerson)...).
		POST("/companies", g.limited(h.Account.RegisterCompany)...).
		GET("/confirm-email", h.Account.ConfirmEmail).
		POST("/confirmation-email", g.limited(h.Account.SendConfirmationEmail)...).
		POST("/forgot-password", g.limited(h.Auth.ForgotPassword)...).
		POST("/reset-password", g.limited(h.Auth.ResetPassword)...)

	profile := NewDomainGroup("profile", "/profile")
	profile.GET("", h.Profile.GetProfile).
		GET("/person", h.Profile.GetPerson).
		PUT("/person", h.Profile.EditPerson).
		PUT("/address", h.Profile.UpdateAddress).
		GET("/phones", h.Profile.ListPhones).
		POST("/phones", h.Profile.CreatePhone).
		GET("/phones/:id", h.Profile.GetPhone).
		PUT("/phones/:id", h.Profile.UpdatePhone).
		DELETE("/phones/:id", h.Profile.DeletePhone)

	signature := NewDomainGroup("signature", "/signature")
	signature.GET("", h.Signature.GetOverview).
		POST("", h.Signature.Request).
		POST("/documents", h.Signature.AddDocument).
		GET("/status", h.Signature.RefreshStatus)

	access := NewDomainGroup("access", "/applications/:id/access")
	access.GET("", h.Access.CheckAccess).
		POST("/request", h.Access.RequestAccess).
		POST("/terms", h.Access.AcceptTerms)

	admin := NewDomainGroup("admin", "")
	if g.Staff != nil {
		admin.Use(g.Staff)
	}
	admin.POST("/applications", h.Access.CreateApplication).
		GET("/applications", h.Access.ListApplications).
		GET("/applications/:id", h.Access.GetApplication).
		PUT("/applications/:id", h.Access.UpdateApplication).
		GET("/applications/:id/accesses", h.Access.ListAccesses).
		POST("/accesses/:id/approve", h.Access.Approve).
		POST("/accesses/:id/deny", h.Access.Deny)

	return []*DomainGroup{auth, accounts, profile, signature, access, admin}
}
