// Copyright 2026 The OASIS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package platform

import (
	"context"
	"database/sql"
	"fmt"
)

func (p *Platform) handleSignUpProduct(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	body, ok := payload.(ProductPayload)
	if !ok {
		return nil, nil, fmt.Errorf("sign_up_product: malformed payload %T", payload)
	}

	var existing int
	if err := tx.QueryRow("SELECT COUNT(*) FROM product WHERE product_name = ?", body.Name).Scan(&existing); err != nil {
		return nil, nil, err
	}
	if existing > 0 {
		return failure(fmt.Sprintf("product %q already exists", body.Name)), nil, nil
	}

	if _, err := tx.Exec(
		"INSERT INTO product (product_id, product_name, sales) VALUES (?, ?, 0)",
		body.ProductID, body.Name,
	); err != nil {
		return nil, nil, err
	}

	trace := map[string]any{"product_id": body.ProductID, "product_name": body.Name}
	return success(map[string]any{"product_id": body.ProductID}), trace, nil
}

func (p *Platform) handlePurchaseProduct(ctx context.Context, tx *sql.Tx, senderID int64, payload any) (Result, any, error) {
	body, ok := payload.(PurchasePayload)
	if !ok {
		return nil, nil, fmt.Errorf("purchase_product: malformed payload %T", payload)
	}
	if body.Quantity <= 0 {
		return failure("purchase quantity must be positive"), nil, nil
	}

	var productID int64
	err := tx.QueryRow("SELECT product_id FROM product WHERE product_name = ?", body.Name).Scan(&productID)
	if err == sql.ErrNoRows {
		return failure(fmt.Sprintf("product %q does not exist", body.Name)), nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	if _, err := tx.Exec(
		"UPDATE product SET sales = sales + ? WHERE product_id = ?",
		body.Quantity, productID,
	); err != nil {
		return nil, nil, err
	}

	trace := map[string]any{"product_name": body.Name, "quantity": body.Quantity}
	return success(map[string]any{"product_id": productID}), trace, nil
}
