package integration

import (
	"context"
	"fmt"
	"slices"

	"github.com/erp/ordersync/internal/domain/integration"
	"go.uber.org/zap"
)

// CustomFieldResolver turns custom body fields into remote custom fields and
// resolves coupon codes into promotion references.
type CustomFieldResolver struct {
	promotions integration.PromotionCodeGateway
	logger     *zap.Logger
}

// NewCustomFieldResolver creates a CustomFieldResolver.
func NewCustomFieldResolver(promotions integration.PromotionCodeGateway, logger *zap.Logger) *CustomFieldResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomFieldResolver{promotions: promotions, logger: logger}
}

// Resolve upserts every custom body field of payload onto order. It fails on
// the first field the map cannot resolve and never skips a field.
func (r *CustomFieldResolver) Resolve(
	ctx context.Context,
	fieldMap *integration.CustomFieldMap,
	payload *integration.OrderPayload,
	order *integration.SalesOrder,
) error {
	if payload.CustomFields == nil {
		return nil
	}
	if order.CustomFields == nil {
		order.CustomFields = integration.NewCustomFieldList()
	}

	if code := payload.CouponCode(); code != "" {
		ref, err := r.ResolveCoupon(ctx, code)
		if err != nil {
			return err
		}
		order.PromoCode = ref
	}

	fields := payload.CustomFieldsWithoutCoupon()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		field, err := r.resolveField(fieldMap, name, fields[name])
		if err != nil {
			return err
		}
		order.CustomFields.Upsert(field)
	}
	return nil
}

func (r *CustomFieldResolver) resolveField(
	fieldMap *integration.CustomFieldMap,
	name string,
	value any,
) (integration.CustomField, error) {
	spec, err := fieldMap.Lookup(name)
	if err != nil {
		return integration.CustomField{}, err
	}
	if !spec.IsSelect() {
		return integration.CustomField{InternalID: spec.InternalID, Type: spec.Type, Value: value}, nil
	}

	if spec.ListID == "" || len(spec.Options) == 0 {
		return integration.CustomField{}, integration.NewMissingSelectInfoError(name, "")
	}
	label := fmt.Sprint(value)
	optionID, ok := spec.OptionID(label)
	if !ok {
		return integration.CustomField{}, integration.NewMissingSelectInfoError(
			name, fmt.Sprintf("no option labelled %q in %s_list_map", label, name))
	}
	return integration.CustomField{
		InternalID: spec.InternalID,
		Type:       spec.Type,
		Value:      integration.SelectValue{OptionID: optionID, ListID: spec.ListID},
	}, nil
}

// ResolveCoupon searches promotions whose code is exactly code and returns a
// reference only when there is exactly one match.
func (r *CustomFieldResolver) ResolveCoupon(ctx context.Context, code string) (*integration.RecordRef, error) {
	matches, err := r.promotions.Search(ctx, integration.FieldIs("code", code))
	if err != nil {
		return nil, fmt.Errorf("search promotion code %q: %w", code, err)
	}
	if len(matches) != 1 {
		r.logger.Warn("Coupon code did not resolve to a single promotion",
			zap.String("coupon_code", code),
			zap.Int("matches", len(matches)),
		)
		return nil, &integration.PromotionError{Code: code, Matches: len(matches)}
	}
	return matches[0].Ref(), nil
}
