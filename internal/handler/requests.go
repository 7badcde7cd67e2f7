package handler

import (
	"net/mail"
	"strconv"
	"strings"

	"github.com/iliyamo/chobar-cart/internal/model"
	"github.com/iliyamo/chobar-cart/internal/response"
	"github.com/iliyamo/chobar-cart/internal/service"
)

// Request bodies.  Each one is checked by validate() before it reaches a
// store or service; bodies are accepted as JSON or form values.

type registerReq struct {
	FullName string `json:"fullName" form:"fullName"`
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	PhoneNo  string `json:"phoneNo" form:"phoneNo"`
	Password string `json:"password" form:"password"`
}

func (r *registerReq) validate() error {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Username = strings.ToLower(strings.TrimSpace(r.Username))
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.PhoneNo = strings.TrimSpace(r.PhoneNo)
	if blank(r.FullName, r.Username, r.Email, r.PhoneNo, r.Password) {
		return response.BadRequest("All fields are required")
	}
	if !validEmail(r.Email) {
		return response.BadRequest("invalid email address")
	}
	if strings.ContainsAny(r.Username, " @") {
		return response.BadRequest("username may not contain spaces or @")
	}
	return nil
}

func (r *registerReq) input() service.RegisterInput {
	return service.RegisterInput{
		FullName: r.FullName,
		Username: r.Username,
		Email:    r.Email,
		PhoneNo:  r.PhoneNo,
		Password: r.Password,
	}
}

// loginReq names the account by email, username or phone number; "login"
// accepts any of the three.
type loginReq struct {
	Login    string `json:"login" form:"login"`
	Email    string `json:"email" form:"email"`
	Username string `json:"username" form:"username"`
	PhoneNo  string `json:"phoneNo" form:"phoneNo"`
	Password string `json:"password" form:"password"`
}

func (r *loginReq) identifier() string {
	for _, s := range []string{r.Login, r.Email, r.Username, r.PhoneNo} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func (r *loginReq) validate() error {
	if r.identifier() == "" {
		return response.BadRequest("email, username or phone no. is required")
	}
	if r.Password == "" {
		return response.BadRequest("password is required")
	}
	return nil
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken" form:"refreshToken"`
}

type passwordReq struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (r *passwordReq) validate() error {
	if r.OldPassword == "" || r.NewPassword == "" {
		return response.BadRequest("old and new password are required")
	}
	return nil
}

type emailReq struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

func (r *emailReq) validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if !validEmail(r.Email) {
		return response.BadRequest("invalid email address")
	}
	return nil
}

type accountReq struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func (r *accountReq) validate() error {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if blank(r.FullName, r.Email) {
		return response.BadRequest("All fields are required")
	}
	if !validEmail(r.Email) {
		return response.BadRequest("invalid email address")
	}
	return nil
}

// productForm is the multipart create-product form; images travel as files.
type productForm struct {
	Title       string   `form:"title"`
	Description string   `form:"description"`
	Price       string   `form:"price"`
	Gender      string   `form:"gender"`
	Category    []string `form:"category"`
}

func (r *productForm) product(ownerID uint64) (*model.Product, error) {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	if blank(r.Title, r.Description, r.Price) {
		return nil, response.BadRequest("title, description and price are required")
	}
	price, err := parsePrice(r.Price)
	if err != nil {
		return nil, err
	}
	gender, err := parseGender(r.Gender)
	if err != nil {
		return nil, err
	}
	cats, err := parseIDs(r.Category)
	if err != nil {
		return nil, err
	}
	if len(cats) == 0 {
		return nil, response.BadRequest("at least one category is required")
	}
	return &model.Product{
		OwnerID:     ownerID,
		Title:       r.Title,
		Description: r.Description,
		Price:       price,
		Gender:      gender,
		Categories:  cats,
	}, nil
}

// productPatch is a partial update; absent fields keep their value.
type productPatch struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Gender      *string  `json:"gender"`
	Price       *float64 `json:"price"`
}

func (r *productPatch) update() (model.ProductUpdate, error) {
	var u model.ProductUpdate
	if s := trimmed(r.Title); s != nil {
		u.Title = s
	}
	if s := trimmed(r.Description); s != nil {
		u.Description = s
	}
	if s := trimmed(r.Gender); s != nil {
		g, err := parseGender(*s)
		if err != nil {
			return u, err
		}
		u.Gender = &g
	}
	if r.Price != nil {
		if *r.Price < 0 {
			return u, response.BadRequest("price must not be negative")
		}
		u.Price = r.Price
	}
	if u.Empty() {
		return u, response.BadRequest("All fields are empty to update")
	}
	return u, nil
}

type categoryReq struct {
	Title string `json:"title" form:"title"`
	Image string `json:"image" form:"image"`
}

func (r *categoryReq) validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return response.BadRequest("category title is required")
	}
	return nil
}

type commentReq struct {
	Content string `json:"content"`
}

func (r *commentReq) validate() error {
	r.Content = strings.TrimSpace(r.Content)
	if r.Content == "" {
		return response.BadRequest("comment content is required")
	}
	return nil
}

func validEmail(s string) bool {
	a, err := mail.ParseAddress(s)
	return err == nil && a.Address == s
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func parsePrice(s string) (float64, error) {
	p, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || p < 0 {
		return 0, response.BadRequest("price must be a non-negative number")
	}
	return p, nil
}

// parseGender normalises the free-form gender tag (e.g. "men", "women").
func parseGender(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) > 20 {
		return "", response.BadRequest("gender must be at most 20 characters")
	}
	return s, nil
}

// parseIDs accepts repeated values and comma separated lists.
func parseIDs(vals []string) ([]uint64, error) {
	seen := map[uint64]bool{}
	var out []uint64
	for _, v := range vals {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p == "" {
				continue
			}
			n, err := strconv.ParseUint(p, 10, 64)
			if err != nil || n == 0 {
				return nil, response.BadRequest("invalid category id")
			}
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out, nil
}
