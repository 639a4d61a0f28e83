/*
 * @module service/database/seed
 * @description 数据库种子数据初始化，写入二级标样参考表与默认管理员账号。
 *              重复执行安全：已存在的行跳过，不覆盖
 * @architecture 数据访问层 - 初始化数据
 * @documentReference ai_docs/data_model.md
 * @stateFlow 迁移完成后执行一次
 * @rules 参考表为只读数据，修正引擎不得改写其中的数值
 * @dependencies labqc-service/service/models, golang.org/x/crypto/bcrypt
 * @refs service/init.go
 */

package database

import (
	"log/slog"
	"os"

	"labqc-service/service/meta"
	"labqc-service/service/models"
	"labqc-service/service/schema"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultUserEmail    = "admin@labqc.local"
	defaultUserPassword = "admin"
)

// Seed 初始化种子数据：参考标样表与默认账号
func Seed(db *gorm.DB, set *schema.Set) error {
	if err := seedReference(db, set); err != nil {
		return err
	}
	return seedDefaultUser(db)
}

// seedReference 写入 SJS-Std 标称值行与 Error 容差行。
// 参考值以修正列名为键，与修正引擎产出的列名对齐
func seedReference(db *gorm.DB, set *schema.Set) error {
	rows := []models.ReferenceRow{
		{ID: meta.ReferenceCertifiedRowID, Label: meta.SecondaryStandardLabel},
		{ID: meta.ReferenceErrorRowID, Label: meta.ReferenceErrorLabel},
	}
	for _, row := range rows {
		err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
		if err != nil {
			return err
		}
	}

	for _, t := range []meta.InstrumentType{meta.InstrumentMajor, meta.InstrumentTrace} {
		ts := set.ForType(t)
		refs := meta.ReferenceValues(t)
		for i, analyte := range ts.Analytes {
			ref, ok := refs[analyte]
			if !ok {
				slog.Warn("分析列缺少参考标样值", "type", t, "analyte", analyte)
				continue
			}
			name := ts.Companions[i]
			certified := ref.Certified
			errVal := ref.Error
			values := []models.ReferenceValue{
				{ReferenceRowID: meta.ReferenceCertifiedRowID, Name: name, NumValue: &certified},
				{ReferenceRowID: meta.ReferenceErrorRowID, Name: name, NumValue: &errVal},
			}
			err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&values).Error
			if err != nil {
				return err
			}
		}
	}

	slog.Info("参考标样数据初始化完成")
	return nil
}

// seedDefaultUser 创建默认账号，密码可通过环境变量覆盖
func seedDefaultUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := os.Getenv("DEFAULT_USER_PASSWORD")
	if password == "" {
		password = defaultUserPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := models.User{
		Email:        defaultUserEmail,
		PasswordHash: string(hash),
	}
	if err := db.Create(&user).Error; err != nil {
		return err
	}
	slog.Info("默认用户创建完成", "email", defaultUserEmail)
	return nil
}
