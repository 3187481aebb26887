package access

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// Claims bind a capability token to a path and the identity of the file
// found there when access was granted.
type Claims struct {
	Path    string `json:"path"`
	Device  uint64 `json:"dev"`
	Inode   uint64 `json:"ino"`
	Size    int64  `json:"size"`
	ModTime int64  `json:"mtime"`
	jwt.RegisteredClaims
}

// identity describes the on-disk file a token refers to.
type identity struct {
	device  uint64
	inode   uint64
	size    int64
	modTime int64
}

func statIdentity(path string) (identity, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return identity{}, err
	}
	return identity{
		device:  uint64(st.Dev),
		inode:   uint64(st.Ino),
		size:    int64(st.Size),
		modTime: st.Mtim.Nano(),
	}, nil
}

func (c *Claims) identity() identity {
	return identity{device: c.Device, inode: c.Inode, size: c.Size, modTime: c.ModTime}
}

func signToken(secret []byte, path string, id identity, now time.Time) ([]byte, error) {
	claims := Claims{
		Path:    path,
		Device:  id.device,
		Inode:   id.inode,
		Size:    id.size,
		ModTime: id.modTime,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			Subject:  path,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	return []byte(signed), nil
}

func parseToken(secret []byte, token []byte) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(string(token), claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.Path == "" {
		return nil, errors.New("token carries no path")
	}
	return claims, nil
}
