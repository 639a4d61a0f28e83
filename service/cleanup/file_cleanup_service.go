/*
 * @module service/cleanup/file_cleanup_service
 * @description 定期清理服务：清除上传目录中不属于任何批次的孤儿文件，
 *              以及数据库中的过期会话
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/ops.md
 * @stateFlow 定时触发 -> 扫描上传目录 -> 对照批次记录 -> 删除孤儿文件与过期会话
 * @rules 仅删除既不是批次文件也不是伴随文档的磁盘文件；清理失败不影响服务运行
 * @dependencies labqc-service/service/auth, gorm.io/gorm, github.com/robfig/cron/v3
 * @refs service/init.go
 */

package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"labqc-service/service/auth"
	"labqc-service/service/models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// FileCleanupService 文件与会话清理服务
type FileCleanupService struct {
	db          *gorm.DB
	authService *auth.AuthService
	uploadDir   string
	spec        string
	cron        *cron.Cron
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
}

// NewFileCleanupService 创建清理服务实例，spec 为 cron 表达式（秒 分 时 日 月 周）
func NewFileCleanupService(db *gorm.DB, authService *auth.AuthService, uploadDir, spec string) *FileCleanupService {
	ctx, cancel := context.WithCancel(context.Background())

	return &FileCleanupService{
		db:          db,
		authService: authService,
		uploadDir:   uploadDir,
		spec:        spec,
		cron:        cron.New(cron.WithSeconds()),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Cleanup 执行一轮清理
func (s *FileCleanupService) Cleanup(ctx context.Context) error {
	slog.Info("开始清理孤儿文件与过期会话")
	startTime := time.Now()

	orphans, err := s.CleanupOrphanFiles(ctx)
	if err != nil {
		slog.Error("清理孤儿文件失败", "error", err)
	} else {
		slog.Info("清理孤儿文件完成", "deleted_count", orphans)
	}

	sessions, err := s.authService.PurgeExpired()
	if err != nil {
		slog.Error("清理过期会话失败", "error", err)
	} else {
		slog.Info("清理过期会话完成", "deleted_count", sessions)
	}

	slog.Info("清理完成",
		"orphan_files", orphans,
		"expired_sessions", sessions,
		"duration_ms", time.Since(startTime).Milliseconds())
	return nil
}

// CleanupOrphanFiles 删除上传目录中未被任何批次引用的文件
func (s *FileCleanupService) CleanupOrphanFiles(ctx context.Context) (int64, error) {
	var runs []models.Run
	if err := s.db.Select("path", "companion_path").Find(&runs).Error; err != nil {
		return 0, fmt.Errorf("查询批次文件路径失败: %w", err)
	}

	referenced := make(map[string]bool, len(runs)*2)
	for _, run := range runs {
		referenced[filepath.Clean(run.Path)] = true
		if run.CompanionPath != nil {
			referenced[filepath.Clean(*run.CompanionPath)] = true
		}
	}

	entries, err := os.ReadDir(s.uploadDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("读取上传目录失败: %w", err)
	}

	var deleted int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Clean(filepath.Join(s.uploadDir, entry.Name()))
		if referenced[path] {
			continue
		}
		if err := os.Remove(path); err != nil {
			slog.Error("删除孤儿文件失败", "path", path, "error", err)
			continue
		}
		slog.Debug("已删除孤儿文件", "path", path)
		deleted++
	}
	return deleted, nil
}

// StartScheduledCleanup 启动定时清理任务
func (s *FileCleanupService) StartScheduledCleanup() error {
	if s.started {
		return fmt.Errorf("清理调度器已经启动")
	}

	_, err := s.cron.AddFunc(s.spec, func() {
		if err := s.Cleanup(s.ctx); err != nil {
			slog.Error("定时清理任务失败", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("添加定时任务失败: %w", err)
	}

	s.cron.Start()
	s.started = true
	slog.Info("清理调度器已启动", "spec", s.spec)
	return nil
}

// StopScheduledCleanup 停止定时清理任务
func (s *FileCleanupService) StopScheduledCleanup() {
	if !s.started {
		return
	}

	s.cancel()
	s.cron.Stop()
	s.started = false
	slog.Info("清理调度器已停止")
}
