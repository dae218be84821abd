// Package dao 实现数据访问层
package dao

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/haierkeys/onchain-diary-service/internal/model"
	"github.com/haierkeys/onchain-diary-service/pkg/fileurl"
	"github.com/haierkeys/onchain-diary-service/pkg/util"

	"github.com/glebarez/sqlite"
	"github.com/haierkeys/gormTracing"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

// Config 数据库配置
type Config struct {
	// Type 数据库类型 sqlite / mysql / postgres
	Type string `yaml:"type" default:"sqlite"`
	// Path SQLite 数据库文件路径
	Path string `yaml:"path" default:"storage/database/diary.sqlite3"`
	// UserName 用户名
	UserName string `yaml:"username"`
	// Password 密码
	Password string `yaml:"password"`
	// Host 主机
	Host string `yaml:"host"`
	// Port 端口，postgres 使用
	Port int `yaml:"port"`
	// Name 数据库名
	Name string `yaml:"name"`
	// TablePrefix 表前缀
	TablePrefix string `yaml:"table-prefix"`
	// AutoMigrate 是否启用自动迁移
	AutoMigrate bool `yaml:"auto-migrate" default:"true"`
	// Charset 字符集
	Charset string `yaml:"charset" default:"utf8mb4"`
	// ParseTime 是否解析时间
	ParseTime bool `yaml:"parse-time" default:"true"`
	// SSLMode postgres sslmode
	SSLMode string `yaml:"ssl-mode" default:"disable"`
	// Replicas 只读副本 DSN，读请求由 dbresolver 分流
	Replicas []string `yaml:"replicas"`
	// MaxIdleConns 最大闲置连接数
	MaxIdleConns int `yaml:"max-idle-conns" default:"10"`
	// MaxOpenConns 最大打开连接数
	MaxOpenConns int `yaml:"max-open-conns" default:"100"`
	// ConnMaxLifetime 连接最大生命周期
	ConnMaxLifetime string `yaml:"conn-max-lifetime" default:"30m"`
	// ConnMaxIdleTime 空闲连接最大生命周期
	ConnMaxIdleTime string `yaml:"conn-max-idle-time" default:"10m"`
}

type Dao struct {
	db     *gorm.DB
	config Config
	logger *zap.Logger

	mu       sync.Mutex
	migrated map[string]bool
}

// New 创建 Dao
func New(db *gorm.DB, c Config, log *zap.Logger) *Dao {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dao{db: db, config: c, logger: log, migrated: make(map[string]bool)}
}

func (d *Dao) DB() *gorm.DB {
	return d.db
}

// UseWithMigrate 返回数据库句柄，首次使用某个模型时执行自动迁移
func (d *Dao) UseWithMigrate(key string) (*gorm.DB, error) {
	if !d.config.AutoMigrate {
		return d.db, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.migrated[key] {
		return d.db, nil
	}
	if err := model.AutoMigrate(d.db, key); err != nil {
		d.logger.Error("auto migrate failed", zap.String("model", key), zap.Error(err))
		return nil, err
	}
	d.migrated[key] = true
	return d.db, nil
}

// Close 关闭连接池
func (d *Dao) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewDBEngine 创建数据库连接
func NewDBEngine(c Config, debug bool, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := useDialector(c, c.dsn())
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   c.TablePrefix, // 表名前缀，`DiaryEntry` 的表名应该是 `t_diary_entry`
			SingularTable: true,          // 使用单数表名
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", c.Type)
	}

	if debug && log != nil {
		db.Config.Logger = logger.New(gormWriter{log.Sugar()}, logger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      logger.Info,
		})
	}

	// 获取通用数据库对象 sql.DB ，然后使用其提供的功能
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(util.MustParseDuration(c.ConnMaxLifetime, 30*time.Minute))
	sqlDB.SetConnMaxIdleTime(util.MustParseDuration(c.ConnMaxIdleTime, 10*time.Minute))

	if len(c.Replicas) > 0 {
		replicas := make([]gorm.Dialector, 0, len(c.Replicas))
		for _, dsn := range c.Replicas {
			r, err := useDialector(c, dsn)
			if err != nil {
				return nil, err
			}
			replicas = append(replicas, r)
		}
		if err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		})); err != nil {
			return nil, errors.Wrap(err, "register read replicas")
		}
	}

	_ = db.Use(&gormTracing.OpentracingPlugin{})

	return db, nil
}

// dsn 主库连接串
func (c Config) dsn() string {
	switch c.Type {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=%t&loc=Local",
			c.UserName,
			c.Password,
			c.Host,
			c.Name,
			c.Charset,
			c.ParseTime,
		)
	case "postgres":
		port := c.Port
		if port == 0 {
			port = 5432
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, port, c.UserName, c.Password, c.Name, c.SSLMode)
	}
	return c.Path
}

func useDialector(c Config, dsn string) (gorm.Dialector, error) {
	switch c.Type {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite", "":
		if dsn != ":memory:" && !fileurl.IsExist(filepath.Dir(dsn)) {
			if err := fileurl.CreatePath(dsn, os.ModePerm); err != nil {
				return nil, err
			}
		}
		return sqlite.Open(dsn), nil
	}
	return nil, errors.Errorf("unsupported database type %q", c.Type)
}

// gormWriter 将 gorm 日志输出到 zap
type gormWriter struct {
	l *zap.SugaredLogger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.l.Infof(format, args...)
}
