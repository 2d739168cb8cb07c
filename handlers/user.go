package handlers

import (
	"net/http"
	"vinylcat/auth"
	"vinylcat/db"
	"vinylcat/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type UserLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserSaveRequest struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password"`
}

type UserInfo struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Permissions []int  `json:"permissions"`
}

func userInfoFrom(u *models.User) UserInfo {
	permissions := []int{}
	for _, grant := range u.Grants {
		permissions = append(permissions, int(grant.Permission))
	}
	return UserInfo{ID: u.ID, Name: u.Name, Email: u.Email, Permissions: permissions}
}

func UserLoginHandler(c *gin.Context) {
	r := UserLoginRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, success := models.UserLogin(r.Email, r.Password)
	if !success {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	auth.LoadSession(c).LoginUser(user.ID)
	c.JSON(http.StatusOK, userInfoFrom(&user))
}

func UserLogout(c *gin.Context, user *models.User) {
	auth.LoadSession(c).LogoutUser()
	c.JSON(http.StatusOK, OKResponse)
}

func UserGetStatus(c *gin.Context, user *models.User) {
	c.JSON(http.StatusOK, userInfoFrom(user))
}

func UserList(c *gin.Context, user *models.User) {
	var users []models.User
	if err := db.Instance.Preload("Grants").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, DBError1Response)
		return
	}
	result := make([]UserInfo, 0, len(users))
	for i := range users {
		result = append(result, userInfoFrom(&users[i]))
	}
	c.JSON(http.StatusOK, result)
}

func UserSave(c *gin.Context, user *models.User) {
	r := UserSaveRequest{}
	if err := c.ShouldBindWith(&r, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if r.ID == 0 {
		created, err := models.UserCreate(r.Name, r.Email, r.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, DBError1Response)
			return
		}
		// New users can manage their own catalog by default
		grant := models.Grant{GrantorID: user.ID, UserID: created.ID, Permission: models.PermissionCatalog}
		_ = db.Instance.Create(&grant).Error
		c.JSON(http.StatusOK, userInfoFrom(&created))
		return
	}
	var target models.User
	if err := db.Instance.First(&target, r.ID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	target.Name = r.Name
	target.Email = r.Email
	if r.Password != "" {
		target.SetPassword(r.Password)
	}
	if err := db.Instance.Save(&target).Error; err != nil {
		c.JSON(http.StatusInternalServerError, DBError2Response)
		return
	}
	c.JSON(http.StatusOK, userInfoFrom(&target))
}
