package api

import (
	"errors"
	"net/http"
	"strconv"

	"TickerSync/internal/model"
	"TickerSync/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MemberHandler 议员与 follow score 查询接口
type MemberHandler struct {
	repo   repository.MemberRepository
	logger *logrus.Logger
}

// NewMemberHandler 创建 MemberHandler
func NewMemberHandler(db *gorm.DB, logger *logrus.Logger) *MemberHandler {
	return &MemberHandler{repo: repository.NewMemberRepository(db), logger: logger}
}

// MemberDetail 议员详情及所属委员会
type MemberDetail struct {
	*model.Member
	Committees []*model.Committee `json:"committees"`
}

// ListMembers 按 follow score 倒序
// GET /api/members?limit=50
func (h *MemberHandler) ListMembers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	members, err := h.repo.ListRanked(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("ListMembers failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": members})
}

// GetMember 议员详情
// GET /api/members/:member_id
func (h *MemberHandler) GetMember(c *gin.Context) {
	id := c.Param("member_id")
	m, err := h.repo.Get(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("GetMember failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	committees, err := h.repo.ListCommittees(c.Request.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("ListCommittees failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, &MemberDetail{Member: m, Committees: committees})
}

// ListSnapshots 议员 follow score 每日快照
// GET /api/members/:member_id/snapshots?limit=30
func (h *MemberHandler) ListSnapshots(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	snaps, err := h.repo.ListSnapshots(c.Request.Context(), c.Param("member_id"), limit)
	if err != nil {
		h.logger.WithError(err).Error("ListSnapshots failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": snaps})
}
