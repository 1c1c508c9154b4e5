package approval

import (
	"testing"

	"github.com/fieldops/mileage-voucher/internal/domain/entity"
	"github.com/stretchr/testify/assert"
)

func TestRequiredChannel(t *testing.T) {
	tests := []struct {
		tier     entity.PositionTier
		expected entity.Channel
	}{
		{entity.TierInspector, entity.ChannelPrimary},
		{entity.TierFLS, entity.ChannelFls},
		{entity.TierDDM, entity.ChannelPrimary},
		{entity.TierDM, entity.ChannelPrimary},
	}

	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			assert.Equal(t, tt.expected, RequiredChannel(tt.tier))
		})
	}
}

func TestRequiredChannel_UnknownTierFallsBackToPrimary(t *testing.T) {
	assert.Equal(t, entity.ChannelPrimary, RequiredChannel(entity.PositionTier("contractor")))
}
