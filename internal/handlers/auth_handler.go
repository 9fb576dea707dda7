package handlers

import (
	"html/template"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kartiksrathod/Eduu/internal/middleware"
	"github.com/kartiksrathod/Eduu/internal/services"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	USN      string `json:"usn"`
	Course   string `json:"course"`
	Semester string `json:"semester"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type resendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type passwordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

var verifiedPage = template.Must(template.New("verified").Parse(`<html><body style='font-family: sans-serif; text-align:center; padding:40px;'>
  <h2>Email Verified Successfully!</h2>
  <p>Your account has been activated. You will be redirected to login shortly.</p>
  <p><a href="{{.}}">Click here if you are not redirected</a></p>
  <meta http-equiv="refresh" content="3;url={{.}}" />
</body></html>
`))

func (h *Handler) Register(c *fiber.Ctx) error {
	var request registerRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}

	err := h.Auth.RegisterUser(c.UserContext(), services.RegisterInput{
		Name:     request.Name,
		Email:    request.Email,
		Password: request.Password,
		USN:      request.USN,
		Course:   request.Course,
		Semester: request.Semester,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "Verification email sent successfully. Please verify to complete registration."})
}

func (h *Handler) VerifyEmail(c *fiber.Ctx) error {
	if _, err := h.Auth.VerifyEmail(c.UserContext(), c.Params("token")); err != nil {
		return err
	}

	redirectURL := strings.TrimRight(h.Config.FrontendURL, "/") + "/login"
	var page strings.Builder
	if err := verifiedPage.Execute(&page, redirectURL); err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.SendString(page.String())
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var request loginRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}

	res, err := h.Auth.LoginUser(c.UserContext(), request.Email, request.Password)
	if err != nil {
		return err
	}

	ttl := h.Auth.Tokens().AccessTTL()
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    res.Token,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HTTPOnly: true,
		Secure:   h.Config.Env == "prod",
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.JSON(fiber.Map{
		"access_token": res.Token,
		"token_type":   "bearer",
		"user":         res.User,
	})
}

func (h *Handler) ResendVerification(c *fiber.Ctx) error {
	var request resendRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}

	msg, err := h.Auth.ResendVerification(c.UserContext(), request.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": msg})
}

func (h *Handler) Profile(c *fiber.Ctx) error {
	user, err := h.Auth.Profile(c.UserContext(), middleware.Subject(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": user})
}

func (h *Handler) ChangePassword(c *fiber.Ctx) error {
	var request passwordRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}

	if err := h.Auth.ChangePassword(c.UserContext(), middleware.Subject(c), request.OldPassword, request.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "Password updated successfully"})
}

func (h *Handler) UploadPhoto(c *fiber.Ctx) error {
	up, closeFile, err := formUpload(c, "file")
	if err != nil {
		return err
	}
	defer closeFile()

	user, photoURL, err := h.Photos.Upload(c.UserContext(), middleware.Subject(c), up)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "Profile photo uploaded successfully",
		"photo_url": photoURL,
		"profile":   user,
	})
}

func (h *Handler) ServePhoto(c *fiber.Ctx) error {
	obj, err := h.Photos.Open(c.UserContext(), c.Params("name"))
	if err != nil {
		return err
	}
	return sendObject(c, obj, "", false)
}
