package storage

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jlaffaye/ftp"

	"storefront/internal/config"
	"storefront/internal/logx"
)

const ftpTimeout = 10 * time.Second

// FTP pushes files to a remote directory, one connection per push.
type FTP struct {
	cfg config.FTP
}

// NewFTP pushes into cfg.Dir on cfg.Addr.
func NewFTP(cfg config.FTP) *FTP {
	return &FTP{cfg: cfg}
}

func (f *FTP) Push(ctx context.Context, localPath, name string) error {
	conn, err := ftp.Dial(f.cfg.Addr, ftp.DialWithTimeout(ftpTimeout), ftp.DialWithContext(ctx))
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.cfg.Addr, err)
	}
	defer func() {
		if err := conn.Quit(); err != nil {
			logx.Warn().Err(err).Msg("ftp quit")
		}
	}()

	if err := conn.Login(f.cfg.User, f.cfg.Pass); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if f.cfg.Dir != "" {
		if err := conn.ChangeDir(f.cfg.Dir); err != nil {
			if err := conn.MakeDir(f.cfg.Dir); err != nil {
				return fmt.Errorf("make dir %s: %w", f.cfg.Dir, err)
			}
			if err := conn.ChangeDir(f.cfg.Dir); err != nil {
				return fmt.Errorf("change dir %s: %w", f.cfg.Dir, err)
			}
		}
	}

	file, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := conn.Stor(name, file); err != nil {
		return fmt.Errorf("store %s: %w", name, err)
	}
	logx.Info().Str("name", name).Str("addr", f.cfg.Addr).Msg("upload pushed to ftp")
	return nil
}
