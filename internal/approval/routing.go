package approval

import "github.com/fieldops/mileage-voucher/internal/domain/entity"

// channelByTier is the static routing table from an owner's position tier
// to the supervisor channel that must approve first. The legacy system
// inferred this from free-text position labels at submit time; here the
// tier is validated when the profile is written and the table is fixed.
var channelByTier = map[entity.PositionTier]entity.Channel{
	entity.TierInspector: entity.ChannelPrimary,
	entity.TierFLS:       entity.ChannelFls,
	entity.TierDDM:       entity.ChannelPrimary,
	entity.TierDM:        entity.ChannelPrimary,
}

// RequiredChannel returns the approver channel a voucher from an owner with
// the given tier routes to. Unknown tiers fall back to the primary channel.
func RequiredChannel(tier entity.PositionTier) entity.Channel {
	if channel, ok := channelByTier[tier]; ok {
		return channel
	}
	return entity.ChannelPrimary
}
