package service

import "github.com/ldt1810/shop-backend/internal/core/domain"

func requireRole(claims *domain.Claims, roles ...string) error {
	if claims == nil {
		return domain.ErrNotAuthorized
	}
	for _, role := range roles {
		if claims.Role == role {
			return nil
		}
	}
	return domain.ErrNotAuthorized
}
